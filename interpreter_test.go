package tinywasm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFibModule builds a module exporting "fib", a recursive function
// computing the nth Fibonacci number via two self-calls.
func buildFibModule(t *testing.T) []byte {
	t.Helper()
	typeSec := section(sectionType, []byte{
		0x01,
		0x60, 0x01, 0x7f, 0x01, 0x7f, // (i32) -> i32
	})
	funcSec := section(sectionFunction, []byte{0x01, 0x00})
	exportBody := append([]byte{0x01}, nameBytes("fib")...)
	exportBody = append(exportBody, 0x00, 0x00)
	exportSec := section(sectionExport, exportBody)

	body := []byte{
		0x00, // no locals
		0x20, 0x00, // local.get 0
		0x41, 0x02, // i32.const 2
		0x48,       // i32.lt_s
		0x04, 0x7f, // if (result i32)
		0x20, 0x00, // local.get 0
		0x05, // else
		0x20, 0x00, // local.get 0
		0x41, 0x01, // i32.const 1
		0x6B,       // i32.sub
		0x10, 0x00, // call 0
		0x20, 0x00, // local.get 0
		0x41, 0x02, // i32.const 2
		0x6B,       // i32.sub
		0x10, 0x00, // call 0
		0x6A, // i32.add
		0x0B, // end if
		0x0B, // end function
	}
	codeEntry := append(encodeU32(uint32(len(body))), body...)
	codeSec := section(sectionCode, append([]byte{0x01}, codeEntry...))

	data := header()
	data = append(data, typeSec...)
	data = append(data, funcSec...)
	data = append(data, exportSec...)
	data = append(data, codeSec...)
	return data
}

func TestInterpreter_fibonacciRecursion(t *testing.T) {
	m, err := DecodeModule(buildFibModule(t))
	require.NoError(t, err)
	inst, err := Instantiate(context.Background(), m, nil)
	require.NoError(t, err)

	fn, ok := inst.ExportedFunction("fib")
	require.True(t, ok)

	results, err := fn.Call(context.Background(), I32(10))
	require.NoError(t, err)
	assert.Equal(t, int32(55), results[0].I32())
}

// buildDivModule exports "divs", (i32,i32)->i32 computing a/b signed.
func buildDivModule(t *testing.T) []byte {
	t.Helper()
	typeSec := section(sectionType, []byte{
		0x01,
		0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	})
	funcSec := section(sectionFunction, []byte{0x01, 0x00})
	exportBody := append([]byte{0x01}, nameBytes("divs")...)
	exportBody = append(exportBody, 0x00, 0x00)
	exportSec := section(sectionExport, exportBody)
	body := []byte{0x00, 0x20, 0x00, 0x20, 0x01, 0x6D, 0x0B}
	codeEntry := append(encodeU32(uint32(len(body))), body...)
	codeSec := section(sectionCode, append([]byte{0x01}, codeEntry...))

	data := header()
	data = append(data, typeSec...)
	data = append(data, funcSec...)
	data = append(data, exportSec...)
	data = append(data, codeSec...)
	return data
}

func TestInterpreter_divideByZeroTraps(t *testing.T) {
	m, err := DecodeModule(buildDivModule(t))
	require.NoError(t, err)
	inst, err := Instantiate(context.Background(), m, nil)
	require.NoError(t, err)

	fn, _ := inst.ExportedFunction("divs")
	_, err = fn.Call(context.Background(), I32(10), I32(0))
	assert.ErrorIs(t, err, ErrIntegerDivideByZero)
}

// buildLoopSumModule exports "sum", (i32)->i32 summing 1..n via a loop
// with br_if, exercising multi-level branch unwinding out of the loop.
func buildLoopSumModule(t *testing.T) []byte {
	t.Helper()
	typeSec := section(sectionType, []byte{
		0x01,
		0x60, 0x01, 0x7f, 0x01, 0x7f,
	})
	funcSec := section(sectionFunction, []byte{0x01, 0x00})
	exportBody := append([]byte{0x01}, nameBytes("sum")...)
	exportBody = append(exportBody, 0x00, 0x00)
	exportSec := section(sectionExport, exportBody)

	// locals: 1 extra i32 (local 1 = accumulator)
	// local1 = 0
	// block
	//   loop
	//     local0 == 0 -> br 1 (exit block)
	//     local1 += local0
	//     local0 -= 1
	//     br 0 (continue loop)
	//   end
	// end
	// local.get 1
	body := []byte{
		0x01, 0x01, 0x7f, // 1 local decl run: 1 x i32
		0x41, 0x00, // i32.const 0
		0x21, 0x01, // local.set 1
		0x02, 0x40, // block (empty)
		0x03, 0x40, // loop (empty)
		0x20, 0x00, // local.get 0
		0x45,       // i32.eqz
		0x0D, 0x01, // br_if 1
		0x20, 0x01, // local.get 1
		0x20, 0x00, // local.get 0
		0x6A,       // i32.add
		0x21, 0x01, // local.set 1
		0x20, 0x00, // local.get 0
		0x41, 0x01, // i32.const 1
		0x6B,       // i32.sub
		0x21, 0x00, // local.set 0
		0x0C, 0x00, // br 0
		0x0B, // end loop
		0x0B, // end block
		0x20, 0x01, // local.get 1
		0x0B, // end func
	}
	codeEntry := append(encodeU32(uint32(len(body))), body...)
	codeSec := section(sectionCode, append([]byte{0x01}, codeEntry...))

	data := header()
	data = append(data, typeSec...)
	data = append(data, funcSec...)
	data = append(data, exportSec...)
	data = append(data, codeSec...)
	return data
}

func TestInterpreter_loopSumWithBrIf(t *testing.T) {
	m, err := DecodeModule(buildLoopSumModule(t))
	require.NoError(t, err)
	inst, err := Instantiate(context.Background(), m, nil)
	require.NoError(t, err)

	fn, _ := inst.ExportedFunction("sum")
	results, err := fn.Call(context.Background(), I32(5))
	require.NoError(t, err)
	assert.Equal(t, int32(15), results[0].I32())
}

// buildNoArgResultModule builds a () -> i32 function body, exported under
// name, for the single-instruction bodies exercised below.
func buildNoArgResultModule(t *testing.T, name string, body []byte) []byte {
	t.Helper()
	typeSec := section(sectionType, []byte{
		0x01,
		0x60, 0x00, 0x01, 0x7f, // () -> i32
	})
	funcSec := section(sectionFunction, []byte{0x01, 0x00})
	exportBody := append([]byte{0x01}, nameBytes(name)...)
	exportBody = append(exportBody, 0x00, 0x00)
	exportSec := section(sectionExport, exportBody)
	codeEntry := append(encodeU32(uint32(len(body))), body...)
	codeSec := section(sectionCode, append([]byte{0x01}, codeEntry...))

	data := header()
	data = append(data, typeSec...)
	data = append(data, funcSec...)
	data = append(data, exportSec...)
	data = append(data, codeSec...)
	return data
}

func TestInterpreter_branchToFunctionLabelActsLikeReturn(t *testing.T) {
	// (func (result i32) i32.const 42 br 0)
	body := []byte{0x00, 0x41, 0x2A, 0x0C, 0x00, 0x0B}
	m, err := DecodeModule(buildNoArgResultModule(t, "brReturn", body))
	require.NoError(t, err)
	inst, err := Instantiate(context.Background(), m, nil)
	require.NoError(t, err)

	fn, _ := inst.ExportedFunction("brReturn")
	results, err := fn.Call(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int32(42), results[0].I32())
}

func TestInterpreter_returnTrimsLeftoverOperands(t *testing.T) {
	// (func (result i32) i32.const 1 i32.const 42 return)
	body := []byte{0x00, 0x41, 0x01, 0x41, 0x2A, 0x0F, 0x0B}
	m, err := DecodeModule(buildNoArgResultModule(t, "retTrim", body))
	require.NoError(t, err)
	inst, err := Instantiate(context.Background(), m, nil)
	require.NoError(t, err)

	fn, _ := inst.ExportedFunction("retTrim")
	results, err := fn.Call(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int32(42), results[0].I32())
}
