package example

func use(x int) {}

func handleSimple(c bool) {
	x := 0
	if c {
		x = 1
	}
	use(x)
}

func count(n int) int {
	s := 0
	for i := 0; i < n; i++ {
		s = s + i
	}
	return s
}

func unused() {
	y := 1
	y = 2
	use(y)
}
