package domain

import "errors"

var (
	// ErrInvalidWindow: train/test/step no positivos.
	ErrInvalidWindow = errors.New("invalid window")

	// ErrInsufficientData: la serie no alcanza para ningún split.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInsufficientHistory: una estrategia recibió menos historia de la que necesita.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrNonMonotonicSeries: fechas no estrictamente crecientes o cierres no positivos.
	ErrNonMonotonicSeries = errors.New("non-monotonic series")

	// ErrRunNotFound: el run pedido no existe en el storage.
	ErrRunNotFound = errors.New("run not found")
)
