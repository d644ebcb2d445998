package disksched_test

import (
	"fmt"

	"github.com/joeycumines/go-greenthread"
	"github.com/joeycumines/go-greenthread/disksched"
)

func ExampleScheduler() {
	rt, err := greenthread.New()
	if err != nil {
		panic(err)
	}

	scheduler := disksched.New(rt, &disksched.Config{
		MaxQueue: 2,
		OnRequest: func(req disksched.Request) {
			fmt.Printf("requester %d track %d\n", req.Requester, req.Track)
		},
		OnService: func(svc disksched.Service) {
			fmt.Printf("service requester %d track %d\n", svc.Requester, svc.Track)
		},
	}, [][]int{
		{53, 10},
		{40, 90},
	})

	if err := rt.Run(scheduler.Start, nil); err != nil {
		panic(err)
	}
	if err := scheduler.Err(); err != nil {
		panic(err)
	}

	//output:
	//requester 0 track 53
	//requester 1 track 40
	//service requester 1 track 40
	//requester 1 track 90
	//service requester 0 track 53
	//requester 0 track 10
	//service requester 1 track 90
	//service requester 0 track 10
}
