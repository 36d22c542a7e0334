package runner

// Observer receives sweep progress. ProbeDone is called from worker
// goroutines and must be safe for concurrent use.
type Observer interface {
	LevelStarted(level int)
	ProbeDone(level int, res ProbeResult)
	BaselineDone(p SweepPoint)
	LevelDone(p SweepPoint)
}

// Observers fans every event out to each member in order.
type Observers []Observer

func (o Observers) LevelStarted(level int) {
	for _, ob := range o {
		ob.LevelStarted(level)
	}
}

func (o Observers) ProbeDone(level int, res ProbeResult) {
	for _, ob := range o {
		ob.ProbeDone(level, res)
	}
}

func (o Observers) BaselineDone(p SweepPoint) {
	for _, ob := range o {
		ob.BaselineDone(p)
	}
}

func (o Observers) LevelDone(p SweepPoint) {
	for _, ob := range o {
		ob.LevelDone(p)
	}
}
