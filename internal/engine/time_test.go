package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dayInstitution builds five working days of 8 equal-length periods with
// a break between periods 3 and 4, in the shape of spec §8 Scenario B
// (period 3 ends 10:15, period 4 starts 10:35).
func dayInstitution() Institution {
	periods := []PeriodTiming{
		{Number: 1, StartMinute: 480, EndMinute: 525},
		{Number: 2, StartMinute: 525, EndMinute: 570},
		{Number: 3, StartMinute: 570, EndMinute: 615},
		{Number: 4, StartMinute: 635, EndMinute: 680},
		{Number: 5, StartMinute: 680, EndMinute: 725},
		{Number: 6, StartMinute: 725, EndMinute: 770},
		{Number: 7, StartMinute: 770, EndMinute: 815},
		{Number: 8, StartMinute: 815, EndMinute: 860},
	}
	return Institution{
		WorkingDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		Periods:     periods,
		Breaks:      []Break{{StartMinute: 615, EndMinute: 635}},
	}
}

func TestTimeModelIsAdjacentAcrossBreak(t *testing.T) {
	tm := NewTimeModel(dayInstitution())
	slots := tm.DaySlots("Monday")
	require.Len(t, slots, 8)

	assert.True(t, tm.IsAdjacent(slots[0], slots[1]), "periods 1-2 touch with no break")
	assert.True(t, tm.IsAdjacent(slots[1], slots[2]), "periods 2-3 touch with no break")
	assert.False(t, tm.IsAdjacent(slots[2], slots[3]), "the break between periods 3 and 4 breaks adjacency")
	assert.True(t, tm.IsAdjacent(slots[3], slots[4]), "periods 4-5 touch with no break")
}

func TestTimeModelMaximalRunsSplitAtBreak(t *testing.T) {
	tm := NewTimeModel(dayInstitution())
	runs := tm.MaximalRuns("Monday")
	require.Len(t, runs, 2)
	assert.Len(t, runs[0], 3) // periods 1-3
	assert.Len(t, runs[1], 5) // periods 4-8
	assert.Equal(t, 1, runs[0][0].Period)
	assert.Equal(t, 4, runs[1][0].Period)
}

func TestTimeModelIsBlockFeasible(t *testing.T) {
	tm := NewTimeModel(dayInstitution())
	assert.True(t, tm.IsBlockFeasible("Monday", 1, 3), "periods 1-2-3 form one run")
	assert.False(t, tm.IsBlockFeasible("Monday", 2, 3), "periods 2-3-4 straddle the break")
	assert.False(t, tm.IsBlockFeasible("Monday", 3, 3), "periods 3-4-5 straddle the break")
	assert.True(t, tm.IsBlockFeasible("Monday", 4, 3), "periods 4-5-6 form one run")
	assert.False(t, tm.IsBlockFeasible("Monday", 1, 0), "zero-length block is never feasible")
}

func TestTimeModelPeriodsSortedRegardlessOfInputOrder(t *testing.T) {
	inst := dayInstitution()
	// Shuffle the declared order; NewTimeModel must still compile by Number.
	inst.Periods[0], inst.Periods[3] = inst.Periods[3], inst.Periods[0]
	tm := NewTimeModel(inst)
	slots := tm.DaySlots("Monday")
	for i, s := range slots {
		assert.Equal(t, i+1, s.Period)
	}
}

func TestBucketClassification(t *testing.T) {
	assert.Equal(t, BucketMorning, Bucket(8*60))
	assert.Equal(t, BucketMorning, Bucket(11*60+59))
	assert.Equal(t, BucketAfternoon, Bucket(12*60))
	assert.Equal(t, BucketAfternoon, Bucket(16*60+59))
	assert.Equal(t, BucketEvening, Bucket(17*60))
	assert.Equal(t, BucketEvening, Bucket(20*60))
}
