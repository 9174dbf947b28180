package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pingpong_league"

// Recorder receives tournament activity events.
type Recorder interface {
	GroupStageGenerated(gameType string, groups int)
	MatchResultRecorded(stage string)
	BracketRoundAdvanced()
	RoomCompleted(format string)
	ArchiveUploaded(outcome string)
}

// NoOp discards every event.
type NoOp struct{}

func (NoOp) GroupStageGenerated(string, int) {}
func (NoOp) MatchResultRecorded(string)      {}
func (NoOp) BracketRoundAdvanced()           {}
func (NoOp) RoomCompleted(string)            {}
func (NoOp) ArchiveUploaded(string)          {}

type Prometheus struct {
	groupStages    *prometheus.CounterVec
	groupsCreated  prometheus.Counter
	results        *prometheus.CounterVec
	bracketRounds  prometheus.Counter
	roomsCompleted *prometheus.CounterVec
	archives       *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		groupStages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "group_stages_generated_total",
			Help:      "Group stages generated, by game type.",
		}, []string{"game_type"}),
		groupsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_created_total",
			Help:      "Round-robin groups created.",
		}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_results_recorded_total",
			Help:      "Match results recorded, by stage.",
		}, []string{"stage"}),
		bracketRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bracket_rounds_advanced_total",
			Help:      "Bracket rounds closed.",
		}),
		roomsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_completed_total",
			Help:      "Rooms that reached the completed state, by match format.",
		}, []string{"format"}),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_uploads_total",
			Help:      "Final result archive uploads, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(p.groupStages, p.groupsCreated, p.results, p.bracketRounds, p.roomsCompleted, p.archives)
	return p
}

func (p *Prometheus) GroupStageGenerated(gameType string, groups int) {
	p.groupStages.WithLabelValues(gameType).Inc()
	p.groupsCreated.Add(float64(groups))
}

func (p *Prometheus) MatchResultRecorded(stage string) {
	p.results.WithLabelValues(stage).Inc()
}

func (p *Prometheus) BracketRoundAdvanced() {
	p.bracketRounds.Inc()
}

func (p *Prometheus) RoomCompleted(format string) {
	p.roomsCompleted.WithLabelValues(format).Inc()
}

func (p *Prometheus) ArchiveUploaded(outcome string) {
	p.archives.WithLabelValues(outcome).Inc()
}
