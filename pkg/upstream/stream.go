package upstream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// handleChatStream emits the configured fragments as an SSE stream of
// chat.completion.chunk documents, then a finish-marker chunk, then the
// terminal "data: [DONE]" sentinel. Every frame is flushed as written and
// a fixed pause follows each content chunk, so downstream consumers see
// genuinely incremental delivery rather than one buffered response.
//
// If the peer disconnects or the server shuts down mid-stream, emission
// stops where it is: no sentinel, no remaining fragments. A truncated
// stream is a legitimate condition for the gateway to handle, not an
// error worth reporting here.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.metrics.activeStreams.Inc()
	defer s.metrics.activeStreams.Dec()

	ctx := r.Context()
	delay := s.cfg.Stream.FragmentDelay()

	for i, fragment := range s.cfg.Stream.Fragments {
		delta := Delta{Content: fragment}
		if i == 0 {
			delta.Role = "assistant"
		}
		if err := writeChunk(w, ChunkChoice{Index: 0, Delta: delta}); err != nil {
			s.log.Debug("stream aborted", "chunk", i, "error", err)
			return
		}
		flusher.Flush()

		select {
		case <-ctx.Done():
			s.log.Debug("stream canceled", "chunk", i)
			return
		case <-time.After(delay):
		}
	}

	stop := "stop"
	if err := writeChunk(w, ChunkChoice{Index: 0, FinishReason: &stop}); err != nil {
		return
	}
	flusher.Flush()

	if _, err := io.WriteString(w, "data: [DONE]\n\n"); err != nil {
		return
	}
	flusher.Flush()
}

// writeChunk frames one chunk choice as an SSE data event.
func writeChunk(w io.Writer, choice ChunkChoice) error {
	chunk := CompletionChunk{
		ID:      streamCompletionID,
		Object:  "chat.completion.chunk",
		Created: createdStamp,
		Model:   modelName,
		Choices: []ChunkChoice{choice},
	}
	data, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
