package loaders

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

const spirvMagic uint32 = 0x07230203

var ErrBadBytecode = errors.New("malformed shader bytecode")

// BinaryLoader reads a file as is.
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return buf, nil
}

// SPIRVLoader reads a SPIR-V module and checks its word alignment and magic number.
type SPIRVLoader struct {
	BinaryLoader
}

func (sl *SPIRVLoader) Load(path string) ([]byte, error) {
	buf, err := sl.BinaryLoader.Load(path)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return buf, nil
	}
	if len(buf)%4 != 0 {
		return nil, errors.Wrapf(ErrBadBytecode, "%s: %d bytes is not a whole number of words", path, len(buf))
	}
	if magic := bytesToBytecode(buf[:4])[0]; magic != spirvMagic {
		return nil, errors.Wrapf(ErrBadBytecode, "%s: magic %#08x is not SPIR-V", path, magic)
	}
	return buf, nil
}

// DXBCLoader reads a DXBC or DXIL container and checks its fourcc.
type DXBCLoader struct {
	BinaryLoader
}

func (dl *DXBCLoader) Load(path string) ([]byte, error) {
	buf, err := dl.BinaryLoader.Load(path)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return buf, nil
	}
	if len(buf) < 4 || string(buf[:4]) != "DXBC" {
		return nil, errors.Wrapf(ErrBadBytecode, "%s: missing DXBC header", path)
	}
	return buf, nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}
