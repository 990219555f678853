// Package presence tracks who is currently editing each project's grid.
//
// The server records an Activity for every mutation it accepts, so the
// tracker needs no subscription of its own. A background reaper marks
// editors away after a period of inactivity and later forgets them.
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Editor is a snapshot of one actor's recent activity in a project.
type Editor struct {
	Actor     string    `json:"actor"`
	ProjectID string    `json:"project_id"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	LastTopic string    `json:"last_topic"`        // e.g. "taskgrid.task.moved"
	LastTask  string    `json:"last_task,omitempty"`
	IdleSecs  float64   `json:"idle_secs"`
	Edits     int64     `json:"edits"`
	Away      bool      `json:"away,omitempty"`
	AwaySince time.Time `json:"away_since,omitempty"`
}

// Activity is one accepted mutation attributed to an actor.
type Activity struct {
	Actor     string
	ProjectID string
	TaskID    string
	Topic     string
}

// ReaperConfig configures the background reaper.
type ReaperConfig struct {
	// AwayAfter is how long an editor may be idle before being marked away.
	// Default: 10 minutes.
	AwayAfter time.Duration

	// EvictAfter is how long an editor stays marked away before being
	// forgotten. Default: 1 hour.
	EvictAfter time.Duration

	// SweepInterval is how often the reaper scans. Default: 30 seconds.
	SweepInterval time.Duration

	// OnAway is called outside the lock for each editor newly marked away.
	OnAway func(actor, projectID string)
}

func (c *ReaperConfig) withDefaults() *ReaperConfig {
	out := ReaperConfig{}
	if c != nil {
		out = *c
	}
	if out.AwayAfter == 0 {
		out.AwayAfter = 10 * time.Minute
	}
	if out.EvictAfter == 0 {
		out.EvictAfter = time.Hour
	}
	if out.SweepInterval == 0 {
		out.SweepInterval = 30 * time.Second
	}
	return &out
}

type editorKey struct {
	project string
	actor   string
}

type editorState struct {
	firstSeen time.Time
	lastSeen  time.Time
	lastTopic string
	lastTask  string
	edits     int64
	away      bool
	awaySince time.Time
}

// Tracker maintains the in-memory editor roster. It is safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	editors map[editorKey]*editorState
	now     func() time.Time

	reaperStop chan struct{}
	reaperDone chan struct{}
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		editors: make(map[editorKey]*editorState),
		now:     time.Now,
	}
}

// Record notes an activity. Activities without an actor are ignored.
func (t *Tracker) Record(a Activity) {
	if a.Actor == "" {
		return
	}

	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	key := editorKey{project: a.ProjectID, actor: a.Actor}
	state, ok := t.editors[key]
	if !ok {
		state = &editorState{firstSeen: now}
		t.editors[key] = state
	}
	if state.away {
		slog.Debug("presence: editor back", "actor", a.Actor, "project", a.ProjectID)
		state.away = false
		state.awaySince = time.Time{}
	}

	state.lastSeen = now
	state.lastTopic = a.Topic
	state.edits++
	if a.TaskID != "" {
		state.lastTask = a.TaskID
	}
}

// Editors returns the editors of projectID, most recently active first.
// An empty projectID returns editors of every project. Editors idle for
// longer than staleThreshold are left out; zero includes everyone tracked.
func (t *Tracker) Editors(projectID string, staleThreshold time.Duration) []Editor {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	out := make([]Editor, 0, len(t.editors))
	for key, state := range t.editors {
		if projectID != "" && key.project != projectID {
			continue
		}
		idle := now.Sub(state.lastSeen)
		if staleThreshold > 0 && idle > staleThreshold {
			continue
		}
		out = append(out, Editor{
			Actor:     key.actor,
			ProjectID: key.project,
			FirstSeen: state.firstSeen,
			LastSeen:  state.lastSeen,
			LastTopic: state.lastTopic,
			LastTask:  state.lastTask,
			IdleSecs:  idle.Seconds(),
			Edits:     state.edits,
			Away:      state.away,
			AwaySince: state.awaySince,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].Actor < out[j].Actor
	})
	return out
}

// StartReaper launches the background sweep. Call Stop to shut it down.
func (t *Tracker) StartReaper(cfg *ReaperConfig) {
	cfg = cfg.withDefaults()
	t.reaperStop = make(chan struct{})
	t.reaperDone = make(chan struct{})

	go t.reapLoop(cfg)
	slog.Info("presence: reaper started",
		"away_after", cfg.AwayAfter,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper goroutine. It is a no-op if none is running.
func (t *Tracker) Stop() {
	if t.reaperStop != nil {
		close(t.reaperStop)
		<-t.reaperDone
		t.reaperStop = nil
		t.reaperDone = nil
	}
}

func (t *Tracker) reapLoop(cfg *ReaperConfig) {
	defer close(t.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.reaperStop:
			return
		case <-ticker.C:
			t.sweep(cfg)
		}
	}
}

func (t *Tracker) sweep(cfg *ReaperConfig) {
	now := t.now()
	var newlyAway []editorKey

	t.mu.Lock()
	for key, state := range t.editors {
		if state.away {
			if now.Sub(state.awaySince) > cfg.EvictAfter {
				delete(t.editors, key)
			}
			continue
		}
		if now.Sub(state.lastSeen) > cfg.AwayAfter {
			state.away = true
			state.awaySince = now
			newlyAway = append(newlyAway, key)
		}
	}
	t.mu.Unlock()

	for _, key := range newlyAway {
		slog.Debug("presence: editor away", "actor", key.actor, "project", key.project)
		if cfg.OnAway != nil {
			cfg.OnAway(key.actor, key.project)
		}
	}
}
