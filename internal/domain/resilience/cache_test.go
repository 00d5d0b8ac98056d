package resilience

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLevelCacheBounded(t *testing.T) {
	Convey("Given a bounded cache of size 2", t, func() {
		c := newLevelCache(2)

		Convey("When entries are added within the bound", func() {
			c.put("a\x00t1", 20)
			c.put("b\x00t1", 21)

			Convey("Then both are retrievable", func() {
				l, ok := c.get("a\x00t1")
				So(ok, ShouldBeTrue)
				So(l, ShouldEqual, 20)

				l, ok = c.get("b\x00t1")
				So(ok, ShouldBeTrue)
				So(l, ShouldEqual, 21)
				So(c.size(), ShouldEqual, 2)
			})
		})

		Convey("When the bound is exceeded", func() {
			c.put("a\x00t1", 20)
			c.put("b\x00t1", 21)
			c.put("c\x00t1", 22)

			Convey("Then the most recently added entry was evicted first", func() {
				So(c.size(), ShouldEqual, 2)

				_, ok := c.get("b\x00t1")
				So(ok, ShouldBeFalse)

				l, ok := c.get("a\x00t1")
				So(ok, ShouldBeTrue)
				So(l, ShouldEqual, 20)

				l, ok = c.get("c\x00t1")
				So(ok, ShouldBeTrue)
				So(l, ShouldEqual, 22)
			})
		})

		Convey("When an existing key is re-put", func() {
			c.put("a\x00t1", 20)
			c.put("a\x00t1", 23)

			Convey("Then the value is updated in place", func() {
				l, ok := c.get("a\x00t1")
				So(ok, ShouldBeTrue)
				So(l, ShouldEqual, 23)
				So(c.size(), ShouldEqual, 1)
			})
		})
	})
}

func TestLevelCacheUnbounded(t *testing.T) {
	Convey("Given an unbounded cache", t, func() {
		c := newLevelCache(-1)

		Convey("When many entries are added", func() {
			for i := 0; i < 1000; i++ {
				c.put(string(rune('a'+i%26))+"\x00"+string(rune(i)), i)
			}

			Convey("Then nothing is evicted", func() {
				So(c.size(), ShouldBeGreaterThan, 2)
			})
		})
	})
}

func TestLevelCacheMiss(t *testing.T) {
	Convey("Given an empty cache", t, func() {
		c := newLevelCache(10)

		Convey("Then lookups miss", func() {
			_, ok := c.get("nope")
			So(ok, ShouldBeFalse)
		})
	})
}
