package action

type batchKind int

const (
	actionBatch batchKind = iota
	debugBatch
)

func (k batchKind) String() string {
	if k == debugBatch {
		return "debug"
	}

	return "action"
}

type queueCommand struct {
	batch   batchKind
	command []byte
	ack     chan<- error
}

type stepRequest struct {
	ack chan<- error
}

// flushDone carries the commands a flush could not send.
type flushDone struct {
	step    string
	ack     chan<- error
	err     error
	actions []interface{}
	debug   []interface{}
}
