package agent

import (
	"context"
	"log"
	"time"
)

// Agent polls the server for an open session and drains the frame spool
// while one is running. Frames are submitted one at a time and never
// retried: a frame that fails to reach the server is dropped, since by the
// next tick the camera has spooled fresher frames that supersede it.
type Agent struct {
	client       *Client
	source       FrameSource
	pollInterval time.Duration

	sessionID string
	seen      map[string]struct{}
}

// New creates an agent with the given poll interval.
func New(client *Client, source FrameSource, pollInterval time.Duration) *Agent {
	return &Agent{
		client:       client,
		source:       source,
		pollInterval: pollInterval,
		seen:         make(map[string]struct{}),
	}
}

// Run polls until the context is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		a.tick(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick runs one poll cycle: refresh session state, then drain the spool if
// a session is open.
func (a *Agent) tick(ctx context.Context) {
	status, err := a.client.SessionStatus(ctx)
	if err != nil {
		log.Printf("Session status poll failed: %v", err)
		return
	}

	if status.SessionID != a.sessionID {
		a.sessionID = status.SessionID
		a.seen = make(map[string]struct{})
		if status.Active {
			log.Printf("Session %s opened, submitting frames", status.SessionID)
		}
	}

	if !status.Active {
		return
	}

	a.drainSpool(ctx)
}

func (a *Agent) drainSpool(ctx context.Context) {
	for {
		frame, err := a.source.Next(ctx)
		if err != nil {
			log.Printf("Frame spool read failed: %v", err)
			return
		}
		if frame == nil {
			return
		}

		result, err := a.client.SubmitFrame(ctx, frame.Data)
		if err != nil {
			// Stale frames are not worth a retry; drop it and let the next
			// tick continue with whatever the camera spooled since.
			log.Printf("Frame submission failed, dropping frame: %v", err)
			if err := a.source.Discard(frame); err != nil {
				log.Printf("Failed to discard frame: %v", err)
			}
			return
		}

		if err := a.source.Discard(frame); err != nil {
			log.Printf("Failed to discard frame: %v", err)
			return
		}

		a.report(result)
	}
}

// report logs each student once per session and frame rejections at a
// glance. A recognized student who was not saved again is the common
// lingering-in-frame case and stays quiet after the first mention; frames
// with nobody recognized say nothing at all.
func (a *Agent) report(result *SubmitResult) {
	switch {
	case result.Rejected != "":
		log.Printf("Frame rejected: %s", result.Rejected)
	case result.Recognized && result.SavedToDB:
		a.seen[result.Name] = struct{}{}
		log.Printf("Recorded %s (similarity %.3f)", result.Name, result.Similarity)
	case result.Recognized:
		if _, ok := a.seen[result.Name]; !ok {
			a.seen[result.Name] = struct{}{}
			log.Printf("%s recognized but not saved: %s", result.Name, result.Message)
		}
	}
}
