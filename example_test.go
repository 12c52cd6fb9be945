package chest_test

import (
	"fmt"
	"os"

	"github.com/hupe1980/chest"
	"github.com/hupe1980/chest/codec"
	"github.com/hupe1980/chest/sizeof"
)

func Example() {
	c, err := chest.Open[string, []int32](chest.WithAvailableMemory(5000))
	if err != nil {
		panic(err)
	}
	defer c.Close()

	xs := make([]int32, 1000)
	ys := make([]int32, 1000)

	c.Set("x", xs)
	c.Set("y", ys)

	// Both keys exist, but only the newest still lives in memory.
	fmt.Println(c.Contains("x"), c.Contains("y"))
	fmt.Println(c.InMemory("x"), c.InMemory("y"))

	x, _ := c.Get("x") // transparently loaded from disk
	fmt.Println(len(x))
	// Output:
	// true true
	// false true
	// 1000
}

func Example_persistent() {
	dir, err := os.MkdirTemp("", "chest-example-")
	if err != nil {
		panic(err)
	}

	c, err := chest.Open[string, string](chest.WithDir(dir))
	if err != nil {
		panic(err)
	}
	c.Set("greeting", "hello")
	c.Flush() // checkpoint: keys become visible to later opens
	c.Close() // persistent directory survives

	c2, _ := chest.Open[string, string](chest.WithDir(dir))
	v, _ := c2.Get("greeting")
	fmt.Println(v)

	c2.Drop()
	// Output:
	// hello
}

func Example_scoped() {
	err := chest.With(func(c *chest.Chest[int, string]) error {
		c.Set(1, "one")
		v, err := c.Get(1)
		fmt.Println(v)
		return err
	})
	// The backing directory is gone, success or not.
	fmt.Println(err)
	// Output:
	// one
	// <nil>
}

func Example_compressedJSON() {
	c, err := chest.Open[string, map[string]int](
		chest.WithCodec(codec.Zstd(codec.JSON{})),
	)
	if err != nil {
		panic(err)
	}
	defer c.Close()

	c.Set("counts", map[string]int{"a": 1})
	c.MoveToDisk("counts")

	v, _ := c.Get("counts")
	fmt.Println(v["a"])
	// Output:
	// 1
}

func Example_customEstimator() {
	type frame struct {
		Pixels []byte
	}

	r := sizeof.New()
	r.Register(
		func(v any) bool { _, ok := v.(frame); return ok },
		func(v any) int64 { return int64(len(v.(frame).Pixels)) },
	)

	c, err := chest.Open[int, frame](
		chest.WithAvailableMemory(1000),
		chest.WithEstimator(r),
	)
	if err != nil {
		panic(err)
	}
	defer c.Close()

	// The registered estimate (4096 bytes) exceeds the budget immediately.
	c.Set(1, frame{Pixels: make([]byte, 4096)})
	fmt.Println(c.InMemory(1))
	// Output:
	// false
}
