package actor

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Buffer", func() {
	var (
		buf Buffer
	)

	BeforeEach(func() {
		buf = NewBuffer("Buf", 2)
	})

	It("should allow push and pop", func() {
		Expect(buf.Capacity()).To(Equal(2))
		Expect(buf.CanPush()).To(BeTrue())

		buf.Push(1)
		buf.Push(2)
		Expect(buf.CanPush()).To(BeFalse())
		Expect(func() { buf.Push(3) }).To(Panic())

		Expect(buf.Peek()).To(Equal(1))
		Expect(buf.Pop()).To(Equal(1))
		Expect(buf.Pop()).To(Equal(2))
		Expect(buf.Pop()).To(BeNil())
	})

	It("should remove the first matching element", func() {
		buf.Push(1)
		buf.Push(2)

		removed := buf.Remove(func(e interface{}) bool { return e.(int) == 2 })

		Expect(removed).To(Equal(2))
		Expect(buf.Size()).To(Equal(1))
		Expect(buf.Remove(func(e interface{}) bool { return false })).To(BeNil())
	})

	It("should drain and restore in order", func() {
		buf.Push(1)
		buf.Push(2)

		drained := buf.Drain()
		Expect(drained).To(Equal([]interface{}{1, 2}))
		Expect(buf.Size()).To(Equal(0))

		buf.Push(3)
		buf.Restore(drained)

		Expect(buf.Drain()).To(Equal([]interface{}{1, 2, 3}))
	})

	It("should invoke hooks", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		hook := NewMockHook(mockCtrl)
		buf.AcceptHook(hook)

		hook.EXPECT().Func(HookCtx{Domain: buf, Pos: HookPosBufPush, Item: 1})
		hook.EXPECT().Func(HookCtx{Domain: buf, Pos: HookPosBufPop, Item: 1})

		buf.Push(1)
		buf.Pop()
	})

	It("should reject duplicated hooks", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		hook := NewMockHook(mockCtrl)
		buf.AcceptHook(hook)

		Expect(func() { buf.AcceptHook(hook) }).To(Panic())
	})
})
