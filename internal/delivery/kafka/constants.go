package kafka

const (
	TopicLfgUpdate    = "lfg.update"
	TopicDungeonReady = "lfg.dungeon.ready"

	TopicPartyMemberChanged = "party.member.changed"
	TopicDungeonCompleted   = "instance.dungeon.completed"
)
