package ring_buffer

// Interface holds the most recent samples of an audio stream so the start of
// an utterance can be recovered once speech is detected.
type Interface interface {
	Add(samples []int16)
	Read() []int16
	Filled() int
	Clear()
}
