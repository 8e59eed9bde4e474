package domain

import "fmt"

// Range es un intervalo de índices semiabierto [Start, End).
type Range struct {
	Start int
	End   int
}

// Len devuelve el número de índices del rango.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains devuelve true si i está en [Start, End).
func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Split es un par (ventana de train, ventana de test) del walk-forward.
// Invariante: Train.End == Test.Start.
type Split struct {
	ID    int
	Train Range
	Test  Range
}

// WindowConfig es la configuración de ventanas en días de trading.
type WindowConfig struct {
	TrainSize int
	TestSize  int
	StepSize  int
}

// DefaultWindow: ~1 año de train, ~3 meses de test, avance ~1 mes.
func DefaultWindow() WindowConfig {
	return WindowConfig{TrainSize: 252, TestSize: 63, StepSize: 21}
}

// Validate devuelve ErrInvalidWindow si algún tamaño no es positivo.
func (w WindowConfig) Validate() error {
	if w.TrainSize <= 0 || w.TestSize <= 0 || w.StepSize <= 0 {
		return fmt.Errorf("%w: train=%d test=%d step=%d must all be > 0",
			ErrInvalidWindow, w.TrainSize, w.TestSize, w.StepSize)
	}
	return nil
}
