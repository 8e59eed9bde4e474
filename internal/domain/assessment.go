package domain

// StrategyVerdict es el estado final de una estrategia en un run.
type StrategyVerdict struct {
	StrategyID string
	Working    bool
	AvgMAE     MetricValue
	AvgDirAcc  MetricValue
}

// Assessment es la evaluación final: cuántas estrategias produjeron resultados.
type Assessment struct {
	Verdicts   []StrategyVerdict
	Working    int
	MinWorking int
	Passed     bool
}
