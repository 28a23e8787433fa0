package lifecycle

import (
	"testing"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/gomega"
)

func TestPipelineTearsDownInReverse(t *testing.T) {
	g := NewWithT(t)

	var log []string
	p := NewPipeline(nil)
	for _, name := range []string{"instance", "device", "swapchain"} {
		name := name
		p.Add(name,
			func() error { log = append(log, "build "+name); return nil },
			func() { log = append(log, "destroy "+name) })
	}

	g.Expect(p.Run()).To(Succeed())
	g.Expect(p.Completed()).To(Equal([]string{"instance", "device", "swapchain"}))

	p.Teardown()
	g.Expect(log).To(Equal([]string{
		"build instance", "build device", "build swapchain",
		"destroy swapchain", "destroy device", "destroy instance",
	}))
	g.Expect(p.Completed()).To(BeEmpty())

	p.Teardown()
	g.Expect(log).To(HaveLen(6))
}

func TestPipelineFailureReleasesOnlyCompletedSteps(t *testing.T) {
	g := NewWithT(t)

	var destroyed []string
	boom := errors.New("no device")

	p := NewPipeline(nil)
	p.Add("instance", func() error { return nil }, func() { destroyed = append(destroyed, "instance") })
	p.Add("surface", func() error { return nil }, func() { destroyed = append(destroyed, "surface") })
	p.Add("physical device", func() error { return boom }, func() { destroyed = append(destroyed, "physical device") })
	p.Add("logical device", func() error { t.Fatal("must not run"); return nil }, nil)

	err := p.Run()
	g.Expect(errors.Is(err, boom)).To(BeTrue())
	g.Expect(err.Error()).To(HavePrefix("physical device: "))
	g.Expect(destroyed).To(Equal([]string{"surface", "instance"}))
	g.Expect(p.Completed()).To(BeEmpty())
}

func TestPipelineSkipsNilTeardown(t *testing.T) {
	g := NewWithT(t)

	p := NewPipeline(nil)
	p.Add("loader", func() error { return nil }, nil)
	g.Expect(p.Run()).To(Succeed())
	g.Expect(p.Teardown).NotTo(Panic())
}

func TestStack(t *testing.T) {
	g := NewWithT(t)

	var released []int
	var s Stack
	for i := 0; i < 3; i++ {
		i := i
		s.Push(func() { released = append(released, i) })
	}
	g.Expect(s.Len()).To(Equal(3))

	s.Unwind()
	g.Expect(released).To(Equal([]int{2, 1, 0}))
	g.Expect(s.Len()).To(BeZero())

	s.Push(func() { released = append(released, 99) })
	s.Disarm()
	s.Unwind()
	g.Expect(released).To(Equal([]int{2, 1, 0}))
}

func TestReplaceKeepsCurrentOnFailure(t *testing.T) {
	g := NewWithT(t)

	var released []int
	release := func(v int) { released = append(released, v) }

	got, err := Replace(1, func(prev int) (int, error) {
		g.Expect(prev).To(Equal(1))
		return 0, errors.New("out of memory")
	}, release)
	g.Expect(err).To(HaveOccurred())
	g.Expect(got).To(Equal(1))
	g.Expect(released).To(BeEmpty())

	got, err = Replace(1, func(prev int) (int, error) { return prev + 1, nil }, release)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(Equal(2))
	g.Expect(released).To(Equal([]int{1}))
}

func TestReplaceFromZeroReleasesNothing(t *testing.T) {
	g := NewWithT(t)

	got, err := Replace(0, func(int) (int, error) { return 7, nil }, func(int) { t.Fatal("nothing to release") })
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(Equal(7))
}
