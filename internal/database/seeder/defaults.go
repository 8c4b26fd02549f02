package seeder

func Defaults() []Seeder {
	return []Seeder{
		RegionsSeeder{},
	}
}

// WithDemo adds sample jobs around the seeded regions.
func WithDemo() []Seeder {
	return append(Defaults(), DemoJobsSeeder{})
}
