package queue

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/LiuYuuChen/priqueue/ordered"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/smartystreets/goconvey/convey"
)

const testItemNum = 10

type testItem struct {
	key   string
	value int
}

func byValue() ordered.Comparer[testItem] {
	return ordered.By(func(item *testItem) int { return item.value })
}

func silentLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func mkTestItems() []*testItem {
	testItems := make([]*testItem, testItemNum)
	for i := range testItems {
		testItems[i] = &testItem{
			key:   fmt.Sprintf("Item_%d", i),
			value: i,
		}
	}
	return testItems
}

func Test_BasicBlockQueueFunction(t *testing.T) {
	cfg := newConfig(WithLocker(&sync.Mutex{}), WithLogger(silentLogger()))
	queue := newBlockQueue[testItem](byValue(), cfg)
	testItems := mkTestItems()

	convey.Convey("test basic block queue functions", t, func() {
		convey.Convey("test Add", func() {
			for i := len(testItems) - 1; i >= 0; i-- {
				convey.So(queue.Add(testItems[i]), convey.ShouldEqual, 0)
			}
			convey.So(queue.Len(), convey.ShouldEqual, testItemNum)
		})

		convey.Convey("test peek, at and contains", func() {
			peek, ok := queue.Peek()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(peek, convey.ShouldPointTo, testItems[0])

			item, ok := queue.At(3)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(item, convey.ShouldPointTo, testItems[3])

			_, ok = queue.At(testItemNum)
			convey.So(ok, convey.ShouldBeFalse)

			convey.So(queue.Contains(testItems[5]), convey.ShouldBeTrue)
			convey.So(queue.Contains(&testItem{key: "Item_5", value: 5}), convey.ShouldBeFalse)
		})

		convey.Convey("test remove and remove at", func() {
			extra := &testItem{key: "Item_100", value: 1}
			convey.So(queue.Add(extra), convey.ShouldEqual, 2)
			convey.So(queue.Add(extra), convey.ShouldEqual, 3)
			convey.So(queue.Contains(extra), convey.ShouldBeTrue)

			convey.So(queue.Remove(extra), convey.ShouldEqual, 2)
			convey.So(queue.Contains(extra), convey.ShouldBeFalse)
			convey.So(queue.Len(), convey.ShouldEqual, testItemNum)

			_, ok := queue.RemoveAt(testItemNum)
			convey.So(ok, convey.ShouldBeFalse)

			last, ok := queue.RemoveAt(testItemNum - 1)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(last, convey.ShouldPointTo, testItems[testItemNum-1])
			convey.So(queue.Contains(last), convey.ShouldBeFalse)
			queue.Add(last)
		})

		convey.Convey("test Poll", func() {
			list := queue.List()
			convey.So(len(list), convey.ShouldEqual, testItemNum)

			for _, value := range testItems {
				item, ok := queue.Poll()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(item, convey.ShouldPointTo, value)
			}

			_, ok := queue.Poll()
			convey.So(ok, convey.ShouldBeFalse)
			convey.So(queue.Len(), convey.ShouldEqual, 0)
		})

		convey.Convey("test BlockPoll wait", func() {
			newItem := &testItem{key: "Item_11"}
			go func() {
				time.Sleep(100 * time.Millisecond)
				queue.Add(newItem)
			}()

			item, err := queue.BlockPoll()
			convey.So(err, convey.ShouldBeNil)
			convey.So(item, convey.ShouldPointTo, newItem)
		})

		convey.Convey("test shutdown", func() {
			newItem := &testItem{key: "Item_11"}
			queue.Add(newItem)
			go func() {
				time.Sleep(100 * time.Millisecond)
				queue.Shutdown()
			}()

			item, err := queue.BlockPoll()
			convey.So(err, convey.ShouldBeNil)
			convey.So(item, convey.ShouldPointTo, newItem)

			_, err = queue.BlockPoll()
			convey.So(errors.Is(err, ErrShutdown), convey.ShouldBeTrue)
			convey.So(queue.IsShutdown(), convey.ShouldBeTrue)

			convey.So(queue.Add(newItem), convey.ShouldEqual, -1)
			convey.So(queue.Len(), convey.ShouldEqual, 0)
		})
	})
}

func Test_BlockQueueDrainAfterShutdown(t *testing.T) {
	queue := NewBlockQueue[testItem](byValue(), WithLogger(silentLogger()))

	convey.Convey("items stored before shutdown can still be polled", t, func() {
		for _, item := range mkTestItems() {
			queue.Add(item)
		}
		queue.Shutdown()

		for i := 0; i < testItemNum; i++ {
			item, err := queue.BlockPoll()
			convey.So(err, convey.ShouldBeNil)
			convey.So(item.value, convey.ShouldEqual, i)
		}
		_, err := queue.BlockPoll()
		convey.So(errors.Is(err, ErrShutdown), convey.ShouldBeTrue)
	})
}

func Test_BlockQueueConcurrent(t *testing.T) {
	queue := NewBlockQueue[testItem](byValue(), WithLogger(silentLogger()))

	convey.Convey("test block queue concurrent", t, func() {
		const (
			producers = 4
			consumers = 4
			patchSize = 100
		)

		var (
			received sync.Map
			count    int
			countMu  sync.Mutex
		)

		consumerWg := sync.WaitGroup{}
		for i := 0; i < consumers; i++ {
			consumerWg.Add(1)
			go func() {
				defer consumerWg.Done()
				for {
					item, err := queue.BlockPoll()
					if err != nil {
						return
					}
					received.Store(item, struct{}{})
					countMu.Lock()
					count++
					countMu.Unlock()
				}
			}()
		}

		producerWg := sync.WaitGroup{}
		for p := 0; p < producers; p++ {
			producerWg.Add(1)
			go func(p int) {
				defer producerWg.Done()
				scope := [2]int{0, 3}
				for i := 0; i < patchSize; i++ {
					queue.Add(&testItem{
						key:   fmt.Sprintf("Item_%d_%d", p, i),
						value: randInt([2]int{0, 50}),
					})
					time.Sleep(time.Duration(randInt(scope)) * time.Microsecond)
				}
			}(p)
		}

		producerWg.Wait()
		queue.Shutdown()
		consumerWg.Wait()

		convey.So(count, convey.ShouldEqual, producers*patchSize)
		convey.So(queue.Len(), convey.ShouldEqual, 0)

		distinct := 0
		received.Range(func(_, _ any) bool {
			distinct++
			return true
		})
		convey.So(distinct, convey.ShouldEqual, producers*patchSize)
	})
}

func Test_BlockQueueKeepsOrderUnderConcurrentAdd(t *testing.T) {
	queue := NewBlockQueue[testItem](byValue(), WithLogger(silentLogger()))

	convey.Convey("concurrent Add and Remove keep the queue sorted", t, func() {
		shared := &testItem{key: "Item_1000", value: 25}
		wg := sync.WaitGroup{}
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					queue.Add(&testItem{value: randInt([2]int{0, 50})})
					queue.Add(shared)
					queue.Remove(shared)
				}
			}()
		}
		wg.Wait()

		list := queue.List()
		convey.So(len(list), convey.ShouldEqual, 200)
		convey.So(queue.Contains(shared), convey.ShouldBeFalse)
		for i := 1; i < len(list); i++ {
			convey.So(list[i-1].value, convey.ShouldBeLessThanOrEqualTo, list[i].value)
		}
	})
}

func randInt(scope [2]int) int {
	if scope[0] > scope[1] {
		scope[0], scope[1] = scope[1], scope[0]
	}
	return scope[0] + rand.Intn(scope[1]-scope[0])
}
