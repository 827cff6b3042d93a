// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff_test

import (
	"fmt"

	"github.com/Navyasridurga/docstring/internal/diff"
)

func ExampleCompute() {
	original := "def add(a, b):\n    return a + b"
	documented := "def add(a, b):\n    \"\"\"Return the sum of a and b.\"\"\"\n    return a + b"

	script := diff.Compute(original, documented)

	fmt.Println(diff.Stats(script).Summary())

	// Output:
	// Modified +1
}

func ExampleRender() {
	script := diff.Compute("line1\nline2\nline3", "line1\nmodified\nline3")

	for _, line := range diff.Render(script) {
		fmt.Printf("%s %d %s\n", line.Kind.Prefix(), line.Number, line.Text)
	}

	// Output:
	//   1 line1
	// - 0 line2
	// + 2 modified
	//   3 line3
}
