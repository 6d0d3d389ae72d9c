package scan

import (
	"errors"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder runs the gozxing QR reader against pixel buffers
type Decoder struct {
	tryHarder bool
}

// NewDecoder creates a new QR decoder
func NewDecoder(tryHarder bool) *Decoder {
	return &Decoder{tryHarder: tryHarder}
}

// Decode attempts to find a QR symbol in buf. A buffer without a symbol is
// OutcomeNotFound, never an error; only malformed buffers return *DecodeError.
func (d *Decoder) Decode(buf *PixelBuffer) (Result, error) {
	img, err := bufferToImage(buf)
	if err != nil {
		return Result{Outcome: OutcomeErrored, Err: err}, err
	}

	src := gozxing.NewLuminanceSourceFromImage(img)

	// light-on-dark symbols only binarize correctly once inverted
	for _, lum := range []gozxing.LuminanceSource{src, src.Invert()} {
		result, err := d.read(lum)
		if err != nil {
			return Result{Outcome: OutcomeErrored, Err: err}, err
		}
		if result != nil {
			return Result{
				Outcome: OutcomeFound,
				Payload: result.GetText(),
			}, nil
		}
	}

	return Result{Outcome: OutcomeNotFound}, nil
}

// read runs one reader pass. A nil result with a nil error means no symbol.
func (d *Decoder) read(lum gozxing.LuminanceSource) (*gozxing.Result, error) {
	bmp, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(lum))
	if err != nil {
		return nil, &DecodeError{Message: "failed to create bitmap", Cause: err}
	}

	// QRCodeReader carries per-call state, so one is built per attempt
	result, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints())
	if err != nil {
		var readerErr gozxing.ReaderException
		if errors.As(err, &readerErr) {
			return nil, nil
		}
		return nil, &DecodeError{Message: "reader failure", Cause: err}
	}
	return result, nil
}

// Scan runs a full request and folds any error into the Result
func (d *Decoder) Scan(req Request) Result {
	res, err := d.Decode(req.Buffer)
	res.Kind = req.Kind
	if err != nil {
		res.Outcome = OutcomeErrored
		res.Err = err
	}
	return res
}

// ScanSource extracts a frame from src and decodes it
func (d *Decoder) ScanSource(src Source, kind SourceKind) Result {
	buf, err := Extract(src)
	if err != nil {
		return Result{Outcome: OutcomeErrored, Kind: kind, Err: err}
	}
	return d.Scan(Request{Kind: kind, Buffer: buf})
}

func (d *Decoder) hints() map[gozxing.DecodeHintType]interface{} {
	hints := make(map[gozxing.DecodeHintType]interface{})
	hints[gozxing.DecodeHintType_POSSIBLE_FORMATS] = []gozxing.BarcodeFormat{
		gozxing.BarcodeFormat_QR_CODE,
	}
	if d.tryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	return hints
}
