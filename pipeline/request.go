package pipeline

// Pipeline takes one scoring request and eventually delivers the marshalled
// response on the returned channel.
type Pipeline func(request Request) <-chan string

// Request carries the raw measurement table payload for one encounter. Tid
// identifies the request in logs and task state.
type Request struct {
	Tid   string `json:"tid"`
	Table []byte `json:"table"`
}
