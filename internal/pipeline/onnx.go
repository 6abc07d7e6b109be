package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	ort "github.com/yalue/onnxruntime_go"
)

var ErrContextWindow = errors.New("prompt exceeds model context window")

// Tokenizer converts between text and model token ids.
type Tokenizer interface {
	Encode(text string) []int
	Decode(ids []int) string
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads a tiktoken BPE encoding such as r50k_base.
func NewTiktokenTokenizer(encoding string) (Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %q failed: %w", encoding, err)
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(ids []int) string {
	return t.enc.Decode(ids)
}

type ONNXConfig struct {
	Name          string
	ModelPath     string
	SharedLibPath string
	Encoding      string
	VocabSize     int
	EOSTokenID    int
	MaxContext    int

	// Download fetches the model files when ModelPath does not exist. Optional.
	Download func(ctx context.Context) error
}

// ONNX runs a causal language model exported to ONNX with input_ids and
// attention_mask inputs and a logits output of shape [1, seq, vocab].
type ONNX struct {
	mu sync.Mutex

	name       string
	session    *ort.DynamicAdvancedSession
	tokenizer  Tokenizer
	vocabSize  int
	eos        int
	maxContext int
}

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

func initRuntime(libPath string) error {
	runtimeOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			runtimeErr = fmt.Errorf("onnx init environment: %w", err)
		}
	})
	return runtimeErr
}

func LoadONNX(ctx context.Context, cfg ONNXConfig) (*ONNX, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("onnx backend needs a model path: %w", ErrNotConfigured)
	}
	if cfg.VocabSize <= 0 {
		return nil, fmt.Errorf("onnx backend needs a vocab size: %w", ErrNotConfigured)
	}

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) || cfg.Download == nil {
			return nil, fmt.Errorf("stat model file failed: %w", err)
		}
		if err := cfg.Download(ctx); err != nil {
			return nil, fmt.Errorf("download model failed: %w", err)
		}
	}

	tokenizer, err := NewTiktokenTokenizer(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	if err := initRuntime(cfg.SharedLibPath); err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask"}, []string{"logits"}, nil)
	if err != nil {
		return nil, fmt.Errorf("onnx new session: %w", err)
	}

	maxContext := cfg.MaxContext
	if maxContext <= 0 {
		maxContext = 2048
	}
	name := cfg.Name
	if name == "" {
		name = cfg.ModelPath
	}
	return &ONNX{
		name:       name,
		session:    session,
		tokenizer:  tokenizer,
		vocabSize:  cfg.VocabSize,
		eos:        cfg.EOSTokenID,
		maxContext: maxContext,
	}, nil
}

func (o *ONNX) Name() string {
	return o.name
}

func (o *ONNX) Generate(ctx context.Context, prompt string, params Params) ([]Output, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	ids := o.tokenizer.Encode(prompt)
	if len(ids) >= o.maxContext {
		return nil, ErrContextWindow
	}

	maxNew := params.MaxNewTokens
	if room := o.maxContext - len(ids); maxNew <= 0 || maxNew > room {
		maxNew = room
	}

	// one session, one generation at a time
	o.mu.Lock()
	defer o.mu.Unlock()

	generated, err := decode(ctx, ids, o.forward, NewSampler(params, nil), maxNew, o.eos)
	if err != nil {
		return nil, err
	}
	return []Output{{GeneratedText: o.tokenizer.Decode(generated)}}, nil
}

// forward runs the model over ids and returns the logits of the last position.
func (o *ONNX) forward(ids []int) ([]float32, error) {
	seq := int64(len(ids))
	inputIDs := make([]int64, len(ids))
	mask := make([]int64, len(ids))
	for i, id := range ids {
		inputIDs[i] = int64(id)
		mask[i] = 1
	}

	idsTensor, err := ort.NewTensor(ort.NewShape(1, seq), inputIDs)
	if err != nil {
		return nil, fmt.Errorf("onnx new input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(ort.NewShape(1, seq), mask)
	if err != nil {
		return nil, fmt.Errorf("onnx new attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	logits, err := ort.NewEmptyTensor[float32](ort.NewShape(1, seq, int64(o.vocabSize)))
	if err != nil {
		return nil, fmt.Errorf("onnx new logits tensor: %w", err)
	}
	defer logits.Destroy()

	if err := o.session.Run([]ort.Value{idsTensor, maskTensor}, []ort.Value{logits}); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	data := logits.GetData()
	last := make([]float32, o.vocabSize)
	copy(last, data[(len(ids)-1)*o.vocabSize:])
	return last, nil
}

func (o *ONNX) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	return err
}

// decode extends prompt one token at a time until eos, maxNew tokens or ctx
// cancellation. The returned ids exclude the prompt.
func decode(ctx context.Context, prompt []int, forward func([]int) ([]float32, error), sampler *Sampler, maxNew, eos int) ([]int, error) {
	ids := append(make([]int, 0, len(prompt)+maxNew), prompt...)
	generated := make([]int, 0, maxNew)

	for len(generated) < maxNew {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logits, err := forward(ids)
		if err != nil {
			return nil, err
		}
		next := sampler.Sample(logits)
		if next < 0 || next == eos {
			break
		}
		ids = append(ids, next)
		generated = append(generated, next)
	}
	return generated, nil
}
