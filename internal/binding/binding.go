// Package binding 提供引用计数的共享绑定：一个已加载的原生库及其全部已解析函数。
//
// 加载器持有第一个引用，每个从它派生的缓冲区或实例各自再持有一个引用。
// 只有最后一个持有者释放时，底层原生库才会被卸载。
package binding

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// ErrReleased 表示引用计数已归零，绑定不可再被获取。
var ErrReleased = errors.New("绑定已释放")

// Shared 是不可变的函数表 T 加上其背后的原生库。
type Shared[T any] struct {
	fns     T
	closers []io.Closer
	refs    atomic.Int64
}

// New 创建引用计数为 1 的绑定。closers 在计数归零时按顺序关闭，
// 目标库应排在它的运行时依赖之前。
func New[T any](fns T, closers ...io.Closer) *Shared[T] {
	s := &Shared[T]{fns: fns, closers: closers}
	s.refs.Store(1)
	return s
}

// Funcs 返回已解析的函数表，调用方不得修改。
func (s *Shared[T]) Funcs() *T {
	return &s.fns
}

// Acquire 增加一个持有者。
func (s *Shared[T]) Acquire() (*Shared[T], error) {
	for {
		n := s.refs.Load()
		if n <= 0 {
			return nil, ErrReleased
		}
		if s.refs.CompareAndSwap(n, n+1) {
			return s, nil
		}
	}
}

// Release 减少一个持有者，最后一个持有者释放时关闭所有原生库。
func (s *Shared[T]) Release() error {
	n := s.refs.Add(-1)
	if n < 0 {
		panic("binding: Release called more times than Acquire")
	}
	if n > 0 {
		return nil
	}

	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("卸载原生库失败: %w", err)
	}
	return nil
}

// Refs 返回当前持有者数量。
func (s *Shared[T]) Refs() int {
	return int(s.refs.Load())
}
