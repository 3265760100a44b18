package lang_test

import (
	"fmt"
	"strings"

	"github.com/ardnew/formula/lang"
)

func Example() {
	v, err := lang.New("a + b").WithValue("a", 2).WithValue("b", 3).Exec()
	if err != nil {
		panic(err)
	}

	fmt.Println(v)
	// Output: 5
}

func Example_functions() {
	e := lang.New(`greet(name) + "!"`).
		WithValue("name", "world").
		WithConstFunction("greet", func(args []lang.Value) (lang.Value, error) {
			return "hello, " + args[0].(string), nil
		}, lang.Args(1))

	v, err := e.Exec()
	if err != nil {
		panic(err)
	}

	fmt.Println(v)
	// Output: hello, world!
}

func ExampleRequest() {
	e, err := lang.New(`upper(first) + " " + last`).Compile()
	if err != nil {
		panic(err)
	}

	for _, name := range []string{"ada lovelace", "alan turing"} {
		parts := strings.Fields(name)

		r := lang.NewRequest(e).WithContexts(lang.NewContexts(lang.Context{
			"first": parts[0],
			"last":  parts[1],
		}))

		v, err := r.Exec()
		if err != nil {
			panic(err)
		}

		fmt.Println(v)
	}
	// Output:
	// ADA lovelace
	// ALAN turing
}

func ExampleExpr_Clone() {
	e, _ := lang.New("x * 2").WithValue("x", 1).Compile()

	c := e.Clone().WithValue("x", 10)

	a, _ := e.Exec()
	b, _ := c.Exec()

	fmt.Println(a, b, e.Equal(c))
	// Output: 2 20 true
}
