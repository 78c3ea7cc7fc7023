package main

const size = 1600

// total adds up 0..n-1 without touching memory, so that it can be
// interpreted by perforate bench.
func total(n int) int {
	s := 0
	for i := 0; i < n; i++ {
		s += i
	}
	return s
}

func main() {
	var in [size]int

	for i := 0; i < size; i++ {
		in[i] = 0
	}

	for j := 100; j < size; j++ {
		in[j] += 10
	}

	for i := 0; i < size; i++ {
		in[i] *= i
	}

	sum := 0
	for j := 0; j < size; j++ {
		sum += in[j]
	}

	println(sum, total(size))
}
