package domain

// ErrorCode is the machine-readable code carried in a room-error frame.
type ErrorCode string

const (
	CodeRoomNotFound      ErrorCode = "ROOM_NOT_FOUND"
	CodeRoomFull          ErrorCode = "ROOM_FULL"
	CodeRoomAlreadyExists ErrorCode = "ROOM_ALREADY_EXISTS"
	CodeInvalidRoomCode   ErrorCode = "INVALID_ROOM_CODE"
	CodeAlreadyInRoom     ErrorCode = "ALREADY_IN_ROOM"
	CodeNameRequired      ErrorCode = "NAME_REQUIRED"
	CodePeerIDRequired    ErrorCode = "PEER_ID_REQUIRED"
	CodePeerIDTaken       ErrorCode = "PEER_ID_TAKEN"
	CodeServerError       ErrorCode = "SERVER_ERROR"
)

// RoomError pairs a wire error code with a human message.
type RoomError struct {
	Code    ErrorCode
	Message string
}

func (e *RoomError) Error() string { return string(e.Code) + ": " + e.Message }

var (
	ErrRoomNotFound  = &RoomError{CodeRoomNotFound, "room does not exist"}
	ErrRoomFull      = &RoomError{CodeRoomFull, "room is full"}
	ErrRoomExists    = &RoomError{CodeRoomAlreadyExists, "room code already taken"}
	ErrPeerIDTaken   = &RoomError{CodePeerIDTaken, "peer id already in use in this room"}
	ErrAlreadyInRoom = &RoomError{CodeAlreadyInRoom, "connection is already in a room"}
)
