package cctx

type ContextKey string

var (
	ActorName ContextKey = "tbt:name"
	ActorRole ContextKey = "tbt:role"
	RoomCode  ContextKey = "tbt:room"
)
