package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"
	lfgv1 "github.com/vogiaan1904/realm-lfg/api/lfg/v1"
	"github.com/vogiaan1904/realm-lfg/internal/models"
	pkgGrpc "github.com/vogiaan1904/realm-lfg/pkg/grpc"
)

var (
	addr        = flag.String("addr", "localhost:50060", "LFG gRPC address (host:port)")
	numPlayers  = flag.IntP("players", "n", 100, "Number of solo players to queue")
	dungeons    = flag.UintSlice("dungeons", []uint{1, 2, 3}, "Dungeon ids players pick from")
	joinRate    = flag.Duration("join-rate", 20*time.Millisecond, "Time between submissions (0 for maximum speed)")
	declineRate = flag.Float64("decline-rate", 0.05, "Probability a player declines a proposal (0.0-1.0)")
	silentRate  = flag.Float64("silent-rate", 0.02, "Probability a player never answers a proposal (0.0-1.0)")
	duration    = flag.DurationP("duration", "d", 2*time.Minute, "How long to run before reporting")
)

type stats struct {
	submitted atomic.Int64
	rejected  atomic.Int64
	proposals atomic.Int64
	declined  atomic.Int64
	groups    atomic.Int64
	tokensOK  atomic.Int64
	removed   atomic.Int64
}

var roleChoices = []models.RoleMask{
	models.RoleTank,
	models.RoleHealer,
	models.RoleDamage,
	models.RoleDamage,
	models.RoleDamage,
	models.RoleTank | models.RoleDamage,
	models.RoleHealer | models.RoleDamage,
}

func main() {
	flag.Parse()

	if len(*dungeons) == 0 {
		fmt.Println("Error: --dungeons needs at least one id")
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	conn, closeConn, err := pkgGrpc.NewClient(*addr)
	if err != nil {
		fmt.Printf("Failed to dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer closeConn()
	cli := lfgv1.NewLfgServiceClient(conn)

	fmt.Printf("Queueing %d players on %s for %s\n", *numPlayers, *addr, *duration)

	var (
		st stats
		wg sync.WaitGroup
	)
	for i := 0; i < *numPlayers; i++ {
		member := "sim-" + uuid.NewString()[:8]
		wg.Go(func() { play(ctx, cli, member, &st) })

		if *joinRate > 0 {
			select {
			case <-time.After(*joinRate):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	<-ctx.Done()
	wg.Wait()

	fmt.Println("\nSimulation summary")
	fmt.Printf("  submitted:  %d\n", st.submitted.Load())
	fmt.Printf("  rejected:   %d\n", st.rejected.Load())
	fmt.Printf("  proposals:  %d\n", st.proposals.Load())
	fmt.Printf("  declined:   %d\n", st.declined.Load())
	fmt.Printf("  groups:     %d\n", st.groups.Load())
	fmt.Printf("  tokens ok:  %d\n", st.tokensOK.Load())
	fmt.Printf("  removed:    %d\n", st.removed.Load())
}

// play streams one member's updates, queues them, and answers proposals
// until the member lands in a dungeon or leaves the queue.
func play(ctx context.Context, cli lfgv1.LfgServiceClient, member string, st *stats) {
	stream, err := cli.StreamUpdates(ctx, &lfgv1.StreamUpdatesRequest{Member: member})
	if err != nil {
		fmt.Printf("%s: stream failed: %v\n", member, err)
		return
	}

	role := roleChoices[rand.IntN(len(roleChoices))]
	picks := pickDungeons()
	if _, err := cli.SubmitTicket(ctx, &lfgv1.SubmitTicketRequest{
		Members:   []string{member},
		Roles:     map[string]uint32{member: uint32(role)},
		Dungeons:  picks,
		QueueType: uint32(models.QueueTypeDungeon),
	}); err != nil {
		st.rejected.Add(1)
		fmt.Printf("%s: submit rejected: %v\n", member, err)
		return
	}
	st.submitted.Add(1)

	for {
		u, err := stream.Recv()
		if err != nil {
			return
		}

		switch models.UpdateType(u.Type) {
		case models.UpdateTypeProposalBegin:
			st.proposals.Add(1)
			if rand.Float64() < *silentRate {
				continue
			}
			agree := rand.Float64() >= *declineRate
			if !agree {
				st.declined.Add(1)
			}
			if _, err := cli.AnswerProposal(ctx, &lfgv1.AnswerProposalRequest{
				ProposalID: u.ProposalID,
				Member:     member,
				Agree:      agree,
			}); err != nil {
				fmt.Printf("%s: answer failed: %v\n", member, err)
			}

		case models.UpdateTypeGroupFound:
			st.groups.Add(1)
			if u.EntryToken == "" {
				continue
			}
			if _, err := cli.ValidateEntryToken(ctx, &lfgv1.ValidateEntryTokenRequest{Token: u.EntryToken}); err == nil {
				st.tokensOK.Add(1)
			}
			return

		case models.UpdateTypeRemovedFromQueue, models.UpdateTypeProposalFailed, models.UpdateTypeProposalDeclined:
			if models.TicketState(u.State) == models.TicketStateNone {
				st.removed.Add(1)
				return
			}
		}
	}
}

func pickDungeons() []uint32 {
	n := 1 + rand.IntN(len(*dungeons))
	perm := rand.Perm(len(*dungeons))
	out := make([]uint32, 0, n)
	for _, i := range perm[:n] {
		out = append(out, uint32((*dungeons)[i]))
	}
	return out
}
