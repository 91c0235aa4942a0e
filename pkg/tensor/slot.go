package tensor

import "fmt"

// MaxSliceRank is the highest source rank the padded (strided) copy path
// supports. Sources that fill their slot exactly take a contiguous copy
// with no rank limit.
const MaxSliceRank = 4

// CopyToSlot writes src, reshaped, into the sub-region of dst addressed by
// fixing dst's leading dimension to slot. dst must have rank src.Rank()+1
// and a slot large enough to hold src in every dimension; violations report
// ErrInternal because they indicate a validation gap upstream.
func CopyToSlot(src, dst *Tensor, slot int) error {
	if dst.Rank() != src.Rank()+1 {
		return fmt.Errorf("%w: mismatched ranks: source rank is %d but destination rank is %d (should be %d)",
			ErrInternal, src.Rank(), dst.Rank(), src.Rank()+1)
	}
	if src.dtype != dst.dtype {
		return fmt.Errorf("%w: mismatched dtypes: source is %v but destination is %v",
			ErrInternal, src.dtype, dst.dtype)
	}
	batch := dst.Dim(0)
	if batch == 0 {
		return fmt.Errorf("%w: destination has zero batch dimension", ErrInternal)
	}
	if slot < 0 || slot >= batch {
		return fmt.Errorf("%w: slot %d out of range for batch dimension %d", ErrInternal, slot, batch)
	}
	slotElems := dst.NumElements() / batch
	if src.NumElements() > slotElems {
		return fmt.Errorf("%w: cannot copy slice: source shape %v exceeds destination slot shape %v",
			ErrInternal, src.shape, Shape(dst.shape[1:]))
	}

	if src.shape.Equal(Shape(dst.shape[1:])) {
		return dispatchCopy(src, dst, slot, copyContiguous)
	}
	if src.Rank() > MaxSliceRank {
		return fmt.Errorf("%w: unhandled rank %d in padded copy", ErrUnimplemented, src.Rank())
	}
	return dispatchCopy(src, dst, slot, copyStrided)
}

// SliceAt extracts element index along the leading dimension of a
// batch-major tensor, producing a tensor of src's trailing shape.
func SliceAt(src *Tensor, index int) (*Tensor, error) {
	if src.Rank() < 1 {
		return nil, fmt.Errorf("%w: cannot slice a rank-0 tensor", ErrInvalidArgument)
	}
	batch := src.Dim(0)
	if index < 0 || index >= batch {
		return nil, fmt.Errorf("%w: index %d out of range for leading dimension %d",
			ErrInvalidArgument, index, batch)
	}
	elemShape := Shape(src.shape[1:]).Clone()
	out, err := New(src.dtype, elemShape)
	if err != nil {
		return nil, err
	}
	elems := elemShape.NumElements()
	if err := dispatchExtract(src, out, index*elems, elems); err != nil {
		return nil, err
	}
	return out, nil
}

type copyFn func(src, dst *Tensor, slot int) error

func dispatchCopy(src, dst *Tensor, slot int, fn copyFn) error {
	switch src.data.(type) {
	case []bool, []int8, []int16, []int32, []int64,
		[]uint8, []uint16, []uint32, []uint64,
		[]float32, []float64, []string:
		return fn(src, dst, slot)
	default:
		return fmt.Errorf("%w: unhandled dtype %v in slot copy", ErrUnimplemented, src.dtype)
	}
}

// copyContiguous handles a source that fills its slot exactly: one flat copy.
func copyContiguous(src, dst *Tensor, slot int) error {
	elems := src.NumElements()
	switch srcData := src.data.(type) {
	case []bool:
		flatCopy(srcData, dst.data.([]bool), slot, elems)
	case []int8:
		flatCopy(srcData, dst.data.([]int8), slot, elems)
	case []int16:
		flatCopy(srcData, dst.data.([]int16), slot, elems)
	case []int32:
		flatCopy(srcData, dst.data.([]int32), slot, elems)
	case []int64:
		flatCopy(srcData, dst.data.([]int64), slot, elems)
	case []uint8:
		flatCopy(srcData, dst.data.([]uint8), slot, elems)
	case []uint16:
		flatCopy(srcData, dst.data.([]uint16), slot, elems)
	case []uint32:
		flatCopy(srcData, dst.data.([]uint32), slot, elems)
	case []uint64:
		flatCopy(srcData, dst.data.([]uint64), slot, elems)
	case []float32:
		flatCopy(srcData, dst.data.([]float32), slot, elems)
	case []float64:
		flatCopy(srcData, dst.data.([]float64), slot, elems)
	case []string:
		flatCopy(srcData, dst.data.([]string), slot, elems)
	}
	return nil
}

func flatCopy[T any](src, dst []T, slot, elems int) {
	copy(dst[slot*elems:(slot+1)*elems], src)
}

// copyStrided handles a source narrower than its slot: per-dimension strided
// copies that leave the padding region of dst untouched.
func copyStrided(src, dst *Tensor, slot int) error {
	switch srcData := src.data.(type) {
	case []bool:
		stridedCopy(srcData, dst.data.([]bool), src.shape, dst.shape, slot)
	case []int8:
		stridedCopy(srcData, dst.data.([]int8), src.shape, dst.shape, slot)
	case []int16:
		stridedCopy(srcData, dst.data.([]int16), src.shape, dst.shape, slot)
	case []int32:
		stridedCopy(srcData, dst.data.([]int32), src.shape, dst.shape, slot)
	case []int64:
		stridedCopy(srcData, dst.data.([]int64), src.shape, dst.shape, slot)
	case []uint8:
		stridedCopy(srcData, dst.data.([]uint8), src.shape, dst.shape, slot)
	case []uint16:
		stridedCopy(srcData, dst.data.([]uint16), src.shape, dst.shape, slot)
	case []uint32:
		stridedCopy(srcData, dst.data.([]uint32), src.shape, dst.shape, slot)
	case []uint64:
		stridedCopy(srcData, dst.data.([]uint64), src.shape, dst.shape, slot)
	case []float32:
		stridedCopy(srcData, dst.data.([]float32), src.shape, dst.shape, slot)
	case []float64:
		stridedCopy(srcData, dst.data.([]float64), src.shape, dst.shape, slot)
	case []string:
		stridedCopy(srcData, dst.data.([]string), src.shape, dst.shape, slot)
	}
	return nil
}

// stridedCopy copies src into dst's slot by rank. Ranks above MaxSliceRank
// are rejected by CopyToSlot before reaching here.
func stridedCopy[T any](src, dst []T, srcShape, dstShape Shape, slot int) {
	base := slot * Shape(dstShape[1:]).NumElements()
	switch len(srcShape) {
	case 0:
		dst[base] = src[0]
	case 1:
		copy(dst[base:base+srcShape[0]], src)
	case 2:
		s1, s2 := srcShape[0], srcShape[1]
		d2 := dstShape[2]
		for i := 0; i < s1; i++ {
			copy(dst[base+i*d2:base+i*d2+s2], src[i*s2:(i+1)*s2])
		}
	case 3:
		s1, s2, s3 := srcShape[0], srcShape[1], srcShape[2]
		d2, d3 := dstShape[2], dstShape[3]
		for i := 0; i < s1; i++ {
			for j := 0; j < s2; j++ {
				off := base + i*d2*d3 + j*d3
				srcOff := (i*s2 + j) * s3
				copy(dst[off:off+s3], src[srcOff:srcOff+s3])
			}
		}
	case 4:
		s1, s2, s3, s4 := srcShape[0], srcShape[1], srcShape[2], srcShape[3]
		d2, d3, d4 := dstShape[2], dstShape[3], dstShape[4]
		for i := 0; i < s1; i++ {
			for j := 0; j < s2; j++ {
				for k := 0; k < s3; k++ {
					off := base + i*d2*d3*d4 + j*d3*d4 + k*d4
					srcOff := ((i*s2+j)*s3 + k) * s4
					copy(dst[off:off+s4], src[srcOff:srcOff+s4])
				}
			}
		}
	}
}

func dispatchExtract(src, dst *Tensor, offset, elems int) error {
	switch srcData := src.data.(type) {
	case []bool:
		copy(dst.data.([]bool), srcData[offset:offset+elems])
	case []int8:
		copy(dst.data.([]int8), srcData[offset:offset+elems])
	case []int16:
		copy(dst.data.([]int16), srcData[offset:offset+elems])
	case []int32:
		copy(dst.data.([]int32), srcData[offset:offset+elems])
	case []int64:
		copy(dst.data.([]int64), srcData[offset:offset+elems])
	case []uint8:
		copy(dst.data.([]uint8), srcData[offset:offset+elems])
	case []uint16:
		copy(dst.data.([]uint16), srcData[offset:offset+elems])
	case []uint32:
		copy(dst.data.([]uint32), srcData[offset:offset+elems])
	case []uint64:
		copy(dst.data.([]uint64), srcData[offset:offset+elems])
	case []float32:
		copy(dst.data.([]float32), srcData[offset:offset+elems])
	case []float64:
		copy(dst.data.([]float64), srcData[offset:offset+elems])
	case []string:
		copy(dst.data.([]string), srcData[offset:offset+elems])
	default:
		return fmt.Errorf("%w: unhandled dtype %v in slice extraction", ErrUnimplemented, src.dtype)
	}
	return nil
}
