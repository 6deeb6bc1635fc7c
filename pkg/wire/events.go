package wire

// Client-to-server event names. These mirror the browser client vocabulary
// and are carried in the Envelope.Event field.
const (
	EvCreateGame     = "createGame"
	EvJoinGame       = "joinGame"
	EvMove           = "move"
	EvLeaveRoom      = "leaveRoom"
	EvUpdatePGN      = "updatePgn"
	EvOfferDraw      = "offerDraw"
	EvAcceptDraw     = "acceptDraw"
	EvDeclineDraw    = "declineDraw"
	EvResign         = "resign"
	EvCheckmate      = "checkmate"
	EvStalemate      = "stalemate"
	EvRepetition     = "drawByRepetition"
	EvMaterial       = "drawByMaterial"
	EvDrawGeneric    = "drawGeneric"
)

// Server-to-client event names.
const (
	EvRoomCreated        = "roomCreated"
	EvMatchFound         = "matchFound"
	EvStartGame          = "startGame"
	EvNewMove            = "newMove"
	EvDrawOffered        = "drawOffered"
	EvDrawAccepted       = "drawAccepted"
	EvDrawDeclined       = "drawDeclined"
	EvGameEnded          = "gameEnded"
	EvGameOverDisconnect = "gameOverDisconnect"
	EvRoomClosed         = "roomClosed"
	EvError              = "error"
)
