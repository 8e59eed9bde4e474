package backtest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/walkforward/internal/application/backtest"
	"github.com/alejandrodnm/walkforward/internal/domain"
)

func TestGenerateSplits_Count(t *testing.T) {
	cases := []struct {
		name                    string
		length, train, test, st int
		want                    int
	}{
		{"default windows on 400 days", 400, 252, 63, 21, 5},
		{"exact fit", 315, 252, 63, 21, 1},
		{"one short", 314, 252, 63, 21, 0},
		{"step 1", 10, 5, 3, 1, 3},
		{"step larger than test", 100, 10, 5, 50, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			splits, err := backtest.GenerateSplits(tc.length, tc.train, tc.test, tc.st)
			require.NoError(t, err)
			assert.Len(t, splits, tc.want)
			if tc.length >= tc.train+tc.test {
				assert.Equal(t, (tc.length-tc.train-tc.test)/tc.st+1, len(splits))
			}
		})
	}
}

func TestGenerateSplits_Layout(t *testing.T) {
	splits, err := backtest.GenerateSplits(400, 252, 63, 21)
	require.NoError(t, err)
	require.Len(t, splits, 5)

	assert.Equal(t, domain.Range{Start: 0, End: 252}, splits[0].Train)
	assert.Equal(t, domain.Range{Start: 252, End: 315}, splits[0].Test)
	assert.Equal(t, domain.Range{Start: 84, End: 336}, splits[4].Train)
	assert.Equal(t, domain.Range{Start: 336, End: 399}, splits[4].Test)

	for i, sp := range splits {
		assert.Equal(t, i, sp.ID)
		assert.Equal(t, sp.Train.End, sp.Test.Start, "no gap between train and test")
		assert.Equal(t, 252, sp.Train.Len())
		assert.Equal(t, 63, sp.Test.Len())
		assert.LessOrEqual(t, sp.Test.End, 400)
		if i > 0 {
			assert.Equal(t, splits[i-1].Train.Start+21, sp.Train.Start)
		}
	}
}

func TestGenerateSplits_TooShortIsEmpty(t *testing.T) {
	splits, err := backtest.GenerateSplits(100, 252, 63, 21)
	require.NoError(t, err)
	assert.NotNil(t, splits)
	assert.Empty(t, splits)

	splits, err = backtest.GenerateSplits(0, 1, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, splits)
}

func TestGenerateSplits_InvalidWindow(t *testing.T) {
	for _, w := range [][3]int{{0, 63, 21}, {252, 0, 21}, {252, 63, 0}, {-1, 63, 21}} {
		_, err := backtest.GenerateSplits(400, w[0], w[1], w[2])
		assert.ErrorIs(t, err, domain.ErrInvalidWindow, "window %v", w)
	}
}

func TestSplitsFor(t *testing.T) {
	a, err := backtest.SplitsFor(400, domain.DefaultWindow())
	require.NoError(t, err)
	b, err := backtest.GenerateSplits(400, 252, 63, 21)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}
