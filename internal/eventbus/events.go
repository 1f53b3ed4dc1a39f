package eventbus

const (
	TypeRecipeAdded      = "recipe.added"
	TypeScheduleComputed = "schedule.computed"
)

// RecipeAdded is the Data of a TypeRecipeAdded event.
type RecipeAdded struct {
	Index     int
	Name      string
	Steps     int
	RequestID string
}

// ScheduleComputed is the Data of a TypeScheduleComputed event. Err is set
// when the scheduler rejected the recipe.
type ScheduleComputed struct {
	Index     int
	Name      string
	Optimal   int
	Normal    int
	RequestID string
	Err       string
}
