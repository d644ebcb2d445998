package greenthread_test

import (
	"fmt"

	"github.com/joeycumines/go-greenthread"
)

// ExampleRuntime_Yield demonstrates round-robin scheduling of cooperative
// threads.
func ExampleRuntime_Yield() {
	rt, err := greenthread.New()
	if err != nil {
		panic(err)
	}

	err = rt.Run(func(any) {
		for _, name := range []string{`ping`, `pong`} {
			if _, err := rt.Spawn(func(arg any) {
				for i := 0; i < 2; i++ {
					fmt.Println(arg, i)
					_ = rt.Yield()
				}
			}, name); err != nil {
				panic(err)
			}
		}
	}, nil)
	fmt.Println(`exited:`, err)

	//output:
	//ping 0
	//pong 0
	//ping 1
	//pong 1
	//exited: <nil>
}

// ExampleRuntime_Wait demonstrates a bounded buffer, using a lock and two
// condition variables, with Mesa-style predicate loops.
func ExampleRuntime_Wait() {
	const (
		mu       = 1
		notEmpty = 2
		notFull  = 3
		capacity = 2
	)

	rt, err := greenthread.New()
	if err != nil {
		panic(err)
	}

	var (
		buffer []int
		done   bool
	)

	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	producer := func(any) {
		for i := 1; i <= 5; i++ {
			must(rt.Lock(mu))
			for len(buffer) == capacity {
				must(rt.Wait(mu, notFull))
			}
			buffer = append(buffer, i)
			must(rt.Signal(mu, notEmpty))
			must(rt.Unlock(mu))
		}
		must(rt.Lock(mu))
		done = true
		must(rt.Broadcast(mu, notEmpty))
		must(rt.Unlock(mu))
	}

	consumer := func(any) {
		var sum int
		must(rt.Lock(mu))
		for {
			for len(buffer) == 0 && !done {
				must(rt.Wait(mu, notEmpty))
			}
			if len(buffer) == 0 {
				break
			}
			sum += buffer[0]
			buffer = buffer[1:]
			must(rt.Signal(mu, notFull))
		}
		must(rt.Unlock(mu))
		fmt.Println(`sum:`, sum)
	}

	err = rt.Run(func(any) {
		_, err := rt.Spawn(consumer, nil)
		must(err)
		_, err = rt.Spawn(producer, nil)
		must(err)
	}, nil)
	fmt.Println(`exited:`, err)
	fmt.Println(`stranded:`, rt.Stats().Stranded)

	//output:
	//sum: 15
	//exited: <nil>
	//stranded: 0
}
