package hypnagogo

import (
	"reflect"
	"unsafe"
)

// MakeIterator makes a row iterator over an m x n frame plane. The rows
// alias the plane's storage; return the iterator with ReturnIterator when
// done.
func MakeIterator(plane []float32, m, n int) (retVal [][]float32) {
	retVal = borrowIterator(m, n)
	for i := range retVal {
		start := i * int(n)
		hdr := (*reflect.SliceHeader)(unsafe.Pointer(&retVal[i]))
		hdr.Data = uintptr(unsafe.Pointer(&plane[start]))
		hdr.Len = int(n)
		hdr.Cap = int(n)
	}
	return
}
