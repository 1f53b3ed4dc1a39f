package recipe

import "chefplan/internal/schedule"

// Builtin returns the default recipe set a fresh store is seeded with.
func Builtin() []Recipe {
	return []Recipe{
		{
			Name: "Cookie",
			Steps: []schedule.Step{
				{ID: 1, Task: "Mix the dry ingredients", Time: 2, Prerequisites: []int{}, OccupiesChef: true},
				{ID: 2, Task: "Allow the butter and egg to reach room temperature", Time: 10, Prerequisites: []int{}, OccupiesChef: false},
				{ID: 3, Task: "Mix the butter, sugar, egg, and vanilla in a bowl", Time: 3, Prerequisites: []int{2}, OccupiesChef: true},
				{ID: 4, Task: "Combine the dry and wet ingredients", Time: 5, Prerequisites: []int{1, 3}, OccupiesChef: true},
				{ID: 5, Task: "Add the chocolate chips", Time: 1, Prerequisites: []int{4}, OccupiesChef: true},
				{ID: 6, Task: "Chill the dough", Time: 60, Prerequisites: []int{5}, OccupiesChef: false},
				{ID: 7, Task: "Roll the dough into balls", Time: 10, Prerequisites: []int{6}, OccupiesChef: true},
				{ID: 8, Task: "Preheat the oven", Time: 15, Prerequisites: []int{}, OccupiesChef: false},
				{ID: 9, Task: "Bake the cookies", Time: 15, Prerequisites: []int{7, 8}, OccupiesChef: false},
			},
		},
		{
			Name: "Cake",
			Steps: []schedule.Step{
				{ID: 1, Task: "Mix the flour and sugar", Time: 3, Prerequisites: []int{}, OccupiesChef: true},
				{ID: 2, Task: "Let the butter melt", Time: 8, Prerequisites: []int{}, OccupiesChef: false},
				{ID: 3, Task: "Beat the eggs", Time: 4, Prerequisites: []int{}, OccupiesChef: true},
				{ID: 4, Task: "Combine all ingredients", Time: 6, Prerequisites: []int{1, 2, 3}, OccupiesChef: true},
				{ID: 5, Task: "Let the dough rest", Time: 30, Prerequisites: []int{4}, OccupiesChef: false},
				{ID: 6, Task: "Preheat the oven", Time: 10, Prerequisites: []int{}, OccupiesChef: false},
				{ID: 7, Task: "Bake the cake", Time: 40, Prerequisites: []int{5, 6}, OccupiesChef: false},
			},
		},
		{
			Name: "Grilled Cheese Sandwich",
			Steps: []schedule.Step{
				{ID: 1, Task: "Butter the bread slices", Time: 2, Prerequisites: []int{}, OccupiesChef: true},
				{ID: 2, Task: "Heat the pan", Time: 5, Prerequisites: []int{}, OccupiesChef: false},
				{ID: 3, Task: "Place cheese between bread slices", Time: 1, Prerequisites: []int{1}, OccupiesChef: true},
				{ID: 4, Task: "Grill the sandwich", Time: 4, Prerequisites: []int{2, 3}, OccupiesChef: true},
				{ID: 5, Task: "Flip and grill the other side", Time: 2, Prerequisites: []int{4}, OccupiesChef: true},
			},
		},
		{
			Name: "Lasagna",
			Steps: []schedule.Step{
				{ID: 1, Task: "Cook the ground beef", Time: 10, Prerequisites: []int{}, OccupiesChef: true},
				{ID: 2, Task: "Prepare the tomato sauce", Time: 15, Prerequisites: []int{1}, OccupiesChef: true},
				{ID: 3, Task: "Boil the lasagna noodles", Time: 8, Prerequisites: []int{}, OccupiesChef: false},
				{ID: 4, Task: "Mix ricotta cheese with herbs", Time: 5, Prerequisites: []int{}, OccupiesChef: true},
				{ID: 5, Task: "Layer noodles, sauce, and cheese", Time: 20, Prerequisites: []int{2, 3, 4}, OccupiesChef: true},
				{ID: 6, Task: "Preheat the oven", Time: 15, Prerequisites: []int{}, OccupiesChef: false},
				{ID: 7, Task: "Bake the lasagna", Time: 45, Prerequisites: []int{5, 6}, OccupiesChef: false},
				{ID: 8, Task: "Let the lasagna cool", Time: 10, Prerequisites: []int{7}, OccupiesChef: false},
			},
		},
	}
}
