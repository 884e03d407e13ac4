// Package instance talks to the instance binder service that allocates
// dungeon instances and moves players into them.
package instance

import (
	"context"
	"fmt"

	"github.com/vogiaan1904/realm-lfg/internal/lfg"
	"github.com/vogiaan1904/realm-lfg/internal/models"
	"github.com/vogiaan1904/realm-lfg/pkg/logger"
	"google.golang.org/grpc"
)

const (
	BindFullMethodName     = "/instance.v1.InstanceBinder/Bind"
	TeleportFullMethodName = "/instance.v1.InstanceBinder/Teleport"
)

type TeleportResponse struct {
	Results map[string]models.TeleportResult `json:"results"`
}

type binderClient struct {
	cc grpc.ClientConnInterface
	l  logger.Logger
}

// NewBinderClient returns an lfg.InstanceBinder over cc. The connection
// must use the JSON codec.
func NewBinderClient(cc grpc.ClientConnInterface, l logger.Logger) lfg.InstanceBinder {
	return &binderClient{
		cc: cc,
		l:  l,
	}
}

func (c *binderClient) Bind(ctx context.Context, req lfg.BindRequest) (lfg.BindResult, error) {
	var out lfg.BindResult
	if err := c.cc.Invoke(ctx, BindFullMethodName, &req, &out); err != nil {
		c.l.Warnf(ctx, "infra.instance.binderClient.Bind: proposal %s attempt %d: %v", req.ProposalID, req.Attempt, err)
		return lfg.BindResult{}, fmt.Errorf("bind proposal %s: %w", req.ProposalID, err)
	}
	if out.InstanceRef == "" {
		return lfg.BindResult{}, fmt.Errorf("bind proposal %s: binder returned no instance", req.ProposalID)
	}

	c.l.Debugf(ctx, "Instance bound - proposal: %s, instance: %s", req.ProposalID, out.InstanceRef)
	return out, nil
}

func (c *binderClient) Teleport(ctx context.Context, req lfg.TeleportRequest) (map[string]models.TeleportResult, error) {
	var out TeleportResponse
	if err := c.cc.Invoke(ctx, TeleportFullMethodName, &req, &out); err != nil {
		c.l.Warnf(ctx, "infra.instance.binderClient.Teleport: proposal %s: %v", req.ProposalID, err)
		return nil, fmt.Errorf("teleport proposal %s: %w", req.ProposalID, err)
	}
	return out.Results, nil
}
