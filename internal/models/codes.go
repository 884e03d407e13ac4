package models

// JoinResult is returned to the client when a submission is rejected.
type JoinResult uint8

const (
	JoinResultOK               JoinResult = 0
	JoinResultFailed           JoinResult = 1
	JoinResultGroupFull        JoinResult = 2
	JoinResultInternalError    JoinResult = 4
	JoinResultNotMeetReqs      JoinResult = 5
	JoinResultMixedRaidDungeon JoinResult = 7
	JoinResultDisconnected     JoinResult = 9
	JoinResultDungeonInvalid   JoinResult = 11
	JoinResultTooManyMembers   JoinResult = 16
	JoinResultRoleCheckFailed  JoinResult = 18
)

// UpdateType tags an LfgUpdate for the client.
type UpdateType uint8

const (
	UpdateTypeDefault          UpdateType = 0
	UpdateTypeRoleCheckAborted UpdateType = 4
	UpdateTypeJoinQueue        UpdateType = 5
	UpdateTypeRoleCheckFailed  UpdateType = 6
	UpdateTypeRemovedFromQueue UpdateType = 7
	UpdateTypeProposalFailed   UpdateType = 8
	UpdateTypeProposalDeclined UpdateType = 9
	UpdateTypeGroupFound       UpdateType = 10
	UpdateTypeAddedToQueue     UpdateType = 12
	UpdateTypeProposalBegin    UpdateType = 13
	UpdateTypeUpdateStatus     UpdateType = 14
)

var updateTypeNames = map[UpdateType]string{
	UpdateTypeDefault:          "default",
	UpdateTypeRoleCheckAborted: "role_check_aborted",
	UpdateTypeJoinQueue:        "join_queue",
	UpdateTypeRoleCheckFailed:  "role_check_failed",
	UpdateTypeRemovedFromQueue: "removed_from_queue",
	UpdateTypeProposalFailed:   "proposal_failed",
	UpdateTypeProposalDeclined: "proposal_declined",
	UpdateTypeGroupFound:       "group_found",
	UpdateTypeAddedToQueue:     "added_to_queue",
	UpdateTypeProposalBegin:    "proposal_begin",
	UpdateTypeUpdateStatus:     "update_status",
}

func (u UpdateType) String() string {
	if name, ok := updateTypeNames[u]; ok {
		return name
	}
	return "unknown"
}

// TeleportResult is reported per member by the instance binder.
type TeleportResult uint8

const (
	TeleportResultNone             TeleportResult = 0
	TeleportResultDead             TeleportResult = 1
	TeleportResultFalling          TeleportResult = 2
	TeleportResultOnTransport      TeleportResult = 3
	TeleportResultExhaustion       TeleportResult = 4
	TeleportResultNoReturnLocation TeleportResult = 6
	TeleportResultImmuneToSummons  TeleportResult = 8
)

func (r TeleportResult) OK() bool {
	return r == TeleportResultNone
}

// PartyResult codes surfaced when a bind could not move the group.
type PartyResult uint8

const (
	PartyResultOK                  PartyResult = 0
	PartyResultLfgTeleportInCombat PartyResult = 30
)

// RemoveMethod is how a member left their party.
type RemoveMethod uint8

const (
	RemoveMethodDefault RemoveMethod = 0
	RemoveMethodKick    RemoveMethod = 1
	RemoveMethodLeave   RemoveMethod = 2
	RemoveMethodKickLfg RemoveMethod = 3
)
