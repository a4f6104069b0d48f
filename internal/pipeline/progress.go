package pipeline

// Stage names the pipeline phase a progress event belongs to.
type Stage string

const (
	StageBuildings  Stage = "buildings"
	StageRoads      Stage = "roads"
	StageParcels    Stage = "parcels"
	StagePopulation Stage = "population"
)

// Progress is one observability event emitted during a tagging pass. Events
// within a stage are strictly monotonic in Processed; they never influence
// classification outcomes.
type Progress struct {
	RunID     string `json:"runId"`
	Stage     Stage  `json:"stage"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Message   string `json:"message"`
}

// Progress cadence: every Nth item plus, unconditionally, the final one.
const (
	buildingProgressEvery = 50
	roadProgressEvery     = 100
)

// publisher pushes progress events onto the subscriber channel. A nil
// publisher or a full channel drops the event; the pipeline never blocks on
// a slow subscriber.
type publisher struct {
	runID string
	ch    chan<- Progress
}

func (p *publisher) emit(stage Stage, processed, total int, message string) {
	if p == nil || p.ch == nil {
		return
	}
	select {
	case p.ch <- Progress{RunID: p.runID, Stage: stage, Processed: processed, Total: total, Message: message}:
	default:
	}
}

// close releases the subscriber channel once the run is over.
func (p *publisher) close() {
	if p != nil && p.ch != nil {
		close(p.ch)
	}
}
