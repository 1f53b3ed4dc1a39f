package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookieSteps() []Step {
	return []Step{
		{ID: 1, Task: "Mix the dry ingredients", Time: 2, Prerequisites: []int{}, OccupiesChef: true},
		{ID: 2, Task: "Allow the butter and egg to reach room temperature", Time: 10, Prerequisites: []int{}},
		{ID: 3, Task: "Mix the butter, sugar, egg, and vanilla in a bowl", Time: 3, Prerequisites: []int{2}, OccupiesChef: true},
		{ID: 4, Task: "Combine the dry and wet ingredients", Time: 5, Prerequisites: []int{1, 3}, OccupiesChef: true},
		{ID: 5, Task: "Add the chocolate chips", Time: 1, Prerequisites: []int{4}, OccupiesChef: true},
		{ID: 6, Task: "Chill the dough", Time: 60, Prerequisites: []int{5}},
		{ID: 7, Task: "Roll the dough into balls", Time: 10, Prerequisites: []int{6}, OccupiesChef: true},
		{ID: 8, Task: "Preheat the oven", Time: 15, Prerequisites: []int{}},
		{ID: 9, Task: "Bake the cookies", Time: 15, Prerequisites: []int{7, 8}},
	}
}

func lasagnaSteps() []Step {
	return []Step{
		{ID: 1, Task: "Cook the ground beef", Time: 10, OccupiesChef: true},
		{ID: 2, Task: "Prepare the tomato sauce", Time: 15, Prerequisites: []int{1}, OccupiesChef: true},
		{ID: 3, Task: "Boil the lasagna noodles", Time: 8},
		{ID: 4, Task: "Mix ricotta cheese with herbs", Time: 5, OccupiesChef: true},
		{ID: 5, Task: "Layer noodles, sauce, and cheese", Time: 20, Prerequisites: []int{2, 3, 4}, OccupiesChef: true},
		{ID: 6, Task: "Preheat the oven", Time: 15},
		{ID: 7, Task: "Bake the lasagna", Time: 45, Prerequisites: []int{5, 6}},
		{ID: 8, Task: "Let the lasagna cool", Time: 10, Prerequisites: []int{7}},
	}
}

type interval struct{ start, end int }

func intervals(r Result) []interval {
	out := make([]interval, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = interval{s.Start, s.End}
	}
	return out
}

func TestCompute_CookieFixture(t *testing.T) {
	t.Parallel()

	normal, err := Compute(cookieSteps(), Sequential)
	require.NoError(t, err)
	optimal, err := Compute(cookieSteps(), ResourceAware)
	require.NoError(t, err)

	assert.Equal(t, 121, normal.Makespan)
	assert.Equal(t, 104, optimal.Makespan)

	assert.Equal(t, interval{0, 2}, intervals(normal)[0])
	assert.Equal(t, interval{0, 2}, intervals(optimal)[0])
	assert.Equal(t, interval{2, 12}, intervals(normal)[1])
	assert.Equal(t, interval{0, 10}, intervals(optimal)[1])

	assert.Equal(t, []interval{
		{0, 2}, {0, 10}, {10, 13}, {13, 18}, {18, 19}, {19, 79}, {79, 89}, {74, 89}, {89, 104},
	}, intervals(optimal))
}

func TestCompute_LasagnaChefAdmissionInArrayOrder(t *testing.T) {
	t.Parallel()

	optimal, err := Compute(lasagnaSteps(), ResourceAware)
	require.NoError(t, err)

	// Step 4 has no precedence constraint but waits for the chef until step 2 is done.
	assert.Equal(t, []interval{
		{0, 10}, {10, 25}, {17, 25}, {25, 30}, {30, 50}, {35, 50}, {50, 95}, {95, 105},
	}, intervals(optimal))
	assert.Equal(t, 105, optimal.Makespan)

	normal, err := Compute(lasagnaSteps(), Sequential)
	require.NoError(t, err)
	assert.Equal(t, 128, normal.Makespan)
}

func TestCompute_SingleStep(t *testing.T) {
	t.Parallel()

	steps := []Step{{ID: 1, Task: "Test Step 1", Time: 5, Prerequisites: []int{}, OccupiesChef: true}}
	for _, mode := range []Mode{Sequential, ResourceAware} {
		res, err := Compute(steps, mode)
		require.NoError(t, err, mode.String())
		assert.Equal(t, 5, res.Makespan, mode.String())
		assert.Equal(t, []interval{{0, 5}}, intervals(res), mode.String())
		assert.Equal(t, mode, res.Mode)
	}
}

func TestCompute_SequentialIsSumOfDurations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		steps []Step
	}{
		{name: "cookie", steps: cookieSteps()},
		{name: "lasagna", steps: lasagnaSteps()},
		{name: "zero durations", steps: []Step{{ID: 1}, {ID: 2}, {ID: 3, Time: 4}}},
		// Sequential never looks at prerequisites, even broken ones.
		{name: "forward reference ignored", steps: []Step{{ID: 1, Time: 3, Prerequisites: []int{2}}, {ID: 2, Time: 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sum := 0
			for _, s := range tt.steps {
				sum += s.Time
			}
			res, err := Compute(tt.steps, Sequential)
			require.NoError(t, err)
			assert.Equal(t, sum, res.Makespan)
			assert.Equal(t, res.Steps[len(res.Steps)-1].End, res.Makespan)
		})
	}
}

func TestCompute_ResourceAwareInvariants(t *testing.T) {
	t.Parallel()

	for name, steps := range map[string][]Step{"cookie": cookieSteps(), "lasagna": lasagnaSteps()} {
		res, err := Compute(steps, ResourceAware)
		require.NoError(t, err, name)

		maxEnd := 0
		for i, s := range res.Steps {
			assert.Equal(t, s.Start+s.Time, s.End, "%s step %d", name, s.ID)
			assert.GreaterOrEqual(t, s.Start, 0)
			for _, p := range s.Prerequisites {
				assert.GreaterOrEqual(t, s.Start, res.Steps[p-1].End, "%s step %d before prerequisite %d", name, s.ID, p)
			}
			if s.OccupiesChef {
				for _, o := range res.Steps[i+1:] {
					if !o.OccupiesChef {
						continue
					}
					overlap := s.Start < o.End && o.Start < s.End
					assert.False(t, overlap, "%s chef steps %d and %d overlap", name, s.ID, o.ID)
				}
			}
			maxEnd = max(maxEnd, s.End)
		}
		assert.Equal(t, maxEnd, res.Makespan, name)
	}
}

func TestCompute_ChefFreeStepNeverStartsNegative(t *testing.T) {
	t.Parallel()

	steps := []Step{
		{ID: 1, Time: 2, OccupiesChef: true},
		{ID: 2, Time: 50},
	}
	res, err := Compute(steps, ResourceAware)
	require.NoError(t, err)
	assert.Equal(t, interval{0, 50}, intervals(res)[1])
	assert.Equal(t, 50, res.Makespan)
}

func TestCompute_IsIdempotentAndDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := cookieSteps()
	snapshot := cookieSteps()

	a, err := Compute(in, ResourceAware)
	require.NoError(t, err)
	b, err := Compute(in, ResourceAware)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, snapshot, in)

	// Results must not alias the caller's prerequisite slices.
	a.Steps[3].Prerequisites[0] = 99
	assert.Equal(t, 1, in[3].Prerequisites[0])
}

func TestCompute_EmptyInput(t *testing.T) {
	t.Parallel()

	for _, mode := range []Mode{Sequential, ResourceAware} {
		_, err := Compute(nil, mode)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestCompute_NegativeTime(t *testing.T) {
	t.Parallel()

	_, err := Compute([]Step{{ID: 1, Time: -1}}, Sequential)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompute_InvalidPrerequisites(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prereq int
		at     int
	}{
		{name: "self reference", prereq: 2, at: 1},
		{name: "forward reference", prereq: 3, at: 1},
		{name: "zero", prereq: 0, at: 1},
		{name: "negative", prereq: -4, at: 2},
		{name: "past the end", prereq: 7, at: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			steps := []Step{{ID: 1, Time: 1}, {ID: 2, Time: 1}, {ID: 3, Time: 1}}
			steps[tt.at].Prerequisites = []int{tt.prereq}

			res, err := Compute(steps, ResourceAware)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPrerequisite))
			assert.Empty(t, res.Steps, "no partial results on failure")

			var pe *PrerequisiteError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.prereq, pe.Prerequisite)
			assert.Equal(t, tt.at, pe.Position)
		})
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	cmp, err := Compare(cookieSteps())
	require.NoError(t, err)
	assert.Equal(t, ResourceAware, cmp.Optimal.Mode)
	assert.Equal(t, Sequential, cmp.Normal.Mode)
	assert.Equal(t, 17, cmp.TimeSaved)

	_, err = Compare([]Step{{ID: 1, Time: 1, Prerequisites: []int{1}}})
	assert.ErrorIs(t, err, ErrInvalidPrerequisite)
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Mode{
		"sequential":     Sequential,
		"normal":         Sequential,
		"resource_aware": ResourceAware,
		"Resource-Aware": ResourceAware,
		" optimal ":      ResourceAware,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("fastest")
	assert.Error(t, err)
}
