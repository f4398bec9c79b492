package lexicon

// Exercise is a canonical exercise name with the shorthand lifters use for
// it.
type Exercise struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// Builtin returns the bundled exercise list. The slice is freshly allocated
// on every call.
func Builtin() []Exercise {
	return []Exercise{
		// Chest
		{Name: "Bench Press", Aliases: []string{"bench", "flat bench", "bb bench", "barbell bench"}},
		{Name: "Incline Bench Press", Aliases: []string{"incline bench", "incline press"}},
		{Name: "Decline Bench Press", Aliases: []string{"decline bench", "decline press"}},
		{Name: "Dumbbell Bench Press", Aliases: []string{"db bench", "dumbbell press"}},
		{Name: "Close Grip Bench Press", Aliases: []string{"close grip bench", "cgbp"}},
		{Name: "Chest Fly", Aliases: []string{"flyes", "pec fly", "dumbbell fly"}},
		{Name: "Cable Fly", Aliases: []string{"cable crossover"}},
		{Name: "Push Up", Aliases: []string{"pushup", "pushups", "push ups", "press up"}},
		{Name: "Dip", Aliases: []string{"dips", "chest dip"}},

		// Back
		{Name: "Deadlift", Aliases: []string{"dl", "deads", "conventional deadlift"}},
		{Name: "Sumo Deadlift", Aliases: []string{"sumo", "sumo dl"}},
		{Name: "Romanian Deadlift", Aliases: []string{"rdl", "rdls", "romanian"}},
		{Name: "Stiff Leg Deadlift", Aliases: []string{"sldl", "stiff leg"}},
		{Name: "Pull Up", Aliases: []string{"pullup", "pullups", "pull ups"}},
		{Name: "Chin Up", Aliases: []string{"chinup", "chinups", "chin ups"}},
		{Name: "Lat Pulldown", Aliases: []string{"pulldown", "pulldowns", "lat pull down"}},
		{Name: "Bent Over Row", Aliases: []string{"barbell row", "bb row", "rows"}},
		{Name: "Dumbbell Row", Aliases: []string{"db row", "one arm row"}},
		{Name: "Seated Cable Row", Aliases: []string{"cable row", "seated row"}},
		{Name: "Pendlay Row", Aliases: []string{"pendlay"}},
		{Name: "Face Pull", Aliases: []string{"face pulls"}},
		{Name: "Shrug", Aliases: []string{"shrugs"}},

		// Shoulders
		{Name: "Overhead Press", Aliases: []string{"ohp", "press", "strict press", "military press"}},
		{Name: "Dumbbell Shoulder Press", Aliases: []string{"db shoulder press", "shoulder press"}},
		{Name: "Lateral Raise", Aliases: []string{"lateral raises", "side raise", "lat raise"}},
		{Name: "Rear Delt Fly", Aliases: []string{"rear delt", "reverse fly"}},
		{Name: "Push Press", Aliases: []string{"push presses"}},

		// Legs
		{Name: "Squat", Aliases: []string{"back squat", "squats", "bb squat"}},
		{Name: "Front Squat", Aliases: []string{"front squats"}},
		{Name: "Goblet Squat", Aliases: []string{"goblet"}},
		{Name: "Leg Press", Aliases: []string{"leg presses"}},
		{Name: "Bulgarian Split Squat", Aliases: []string{"bulgarian", "split squat", "bss"}},
		{Name: "Lunge", Aliases: []string{"lunges", "walking lunge"}},
		{Name: "Leg Extension", Aliases: []string{"leg extensions", "quad extension"}},
		{Name: "Leg Curl", Aliases: []string{"leg curls", "hamstring curl"}},
		{Name: "Hip Thrust", Aliases: []string{"hip thrusts", "glute bridge"}},
		{Name: "Calf Raise", Aliases: []string{"calf raises", "calves"}},

		// Arms
		{Name: "Bicep Curl", Aliases: []string{"curl", "curls", "biceps curl", "barbell curl"}},
		{Name: "Hammer Curl", Aliases: []string{"hammer curls", "hammers"}},
		{Name: "Preacher Curl", Aliases: []string{"preacher curls"}},
		{Name: "Tricep Pushdown", Aliases: []string{"pushdown", "pushdowns", "tricep pushdowns"}},
		{Name: "Skull Crusher", Aliases: []string{"skull crushers", "skullcrusher", "skullcrushers"}},
		{Name: "Overhead Tricep Extension", Aliases: []string{"tricep extension", "overhead extension"}},

		// Core and carries
		{Name: "Plank", Aliases: []string{"planks"}},
		{Name: "Hanging Leg Raise", Aliases: []string{"leg raise", "leg raises"}},
		{Name: "Cable Crunch", Aliases: []string{"crunches", "cable crunches"}},
		{Name: "Farmer Carry", Aliases: []string{"farmers walk", "farmers carry", "farmer walk"}},

		// Olympic
		{Name: "Power Clean", Aliases: []string{"clean", "cleans", "power cleans"}},
		{Name: "Clean and Jerk", Aliases: []string{"clean and jerk", "c and j"}},
		{Name: "Snatch", Aliases: []string{"power snatch", "snatches"}},
		{Name: "Kettlebell Swing", Aliases: []string{"kb swing", "swings", "kettlebell swings"}},
	}
}
