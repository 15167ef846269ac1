package hypnagogo

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"time"

	causal "github.com/gorgonia/hypnagogo/causalnet"
	"github.com/pkg/errors"
)

// Generator is the top level structure and the entry point of the API. It
// owns the temporal window and drives the model autoregressively: each tick
// the predicted frame becomes the newest frame of the next window.
type Generator struct {
	// state
	Statistics
	state    State
	window   *Window
	img      *image.RGBA
	tick     int
	useDummy bool

	// model
	nn  *causal.Net
	inf Inferer

	// config
	name    string
	nnConf  causal.Config
	seeder  Seeder
	display Display

	buf    bytes.Buffer
	logger *log.Logger
}

// New creates a Generator and builds its network. It takes a configuration
// for the network and the two collaborators: a Seeder for the initial window
// and a Display for the rendered frames.
func New(conf Config) *Generator {
	if !conf.NNConf.IsValid() {
		panic("NNConf is not valid. Unable to proceed")
	}
	if conf.Display == nil {
		panic("No Display. Unable to proceed")
	}
	if conf.Seeder == nil {
		conf.Seeder = UniformSeeder(conf.NNConf.Seed)
	}

	nn := causal.New(conf.NNConf)
	if err := nn.Init(); err != nil {
		panic(fmt.Sprintf("%+v", err))
	}

	retVal := &Generator{
		state:      Stopped,
		nn:         nn,
		name:       conf.Name,
		nnConf:     conf.NNConf,
		seeder:     conf.Seeder,
		display:    conf.Display,
		Statistics: makeStatistics(),
	}
	retVal.logger = log.New(&retVal.buf, "", log.Ltime)
	return retVal
}

// UseDummy swaps the network for the deterministic echo predictor. The
// network stays around; Load or the next SwitchToInference with useDummy off
// brings it back.
func (g *Generator) UseDummy() { g.useDummy = true }

// NN returns the underlying network.
func (g *Generator) NN() *causal.Net { return g.nn }

// SwitchToInference compiles the network into an Inferencer. It is called
// lazily by Run, but may be called up front to surface errors early.
func (g *Generator) SwitchToInference(toLog bool) error {
	if g.inf != nil {
		if err := g.inf.Close(); err != nil {
			return err
		}
		g.inf = nil
	}
	if g.useDummy {
		log.Printf("Using Dummy")
		g.inf = dummyInferer{
			channels: g.nnConf.InChannels,
			window:   g.nnConf.Window,
			height:   g.nnConf.Height,
			width:    g.nnConf.Width,
		}
		return nil
	}
	inf, err := causal.Infer(g.nn, 1, toLog)
	if err != nil {
		return err
	}
	g.inf = inf
	return nil
}

// Run drives the loop until the display asks to stop or a tick fails. Each
// tick: infer the next frame, convert it for display, slide it into the
// window, render, poll for the stop signal. The window is seeded on the
// first call; subsequent calls continue from where the last one stopped.
func (g *Generator) Run() error {
	conf := g.nnConf
	if g.inf == nil {
		if err := g.SwitchToInference(false); err != nil {
			return err
		}
	}
	if g.window == nil {
		var err error
		if g.window, err = NewWindow(g.seeder, conf.InChannels, conf.Window, conf.Height, conf.Width); err != nil {
			return err
		}
	}

	log.Printf("Dreaming %q: %d frames of %dx%d", g.name, conf.Window, conf.Height, conf.Width)
	g.state = Running
	for g.state == Running {
		start := time.Now()
		g.buf.Reset()
		g.logger.Printf("Tick %d", g.tick)

		frame, err := g.inf.Infer(g.window.Pack())
		if err != nil {
			if el, ok := g.inf.(ExecLogger); ok {
				g.logger.Println(el.ExecLog())
			}
			return errors.Wrapf(err, "inference failed at tick %d", g.tick)
		}
		if !validFrame(frame) {
			if el, ok := g.inf.(ExecLogger); ok {
				g.logger.Println(el.ExecLog())
			}
			return errors.Errorf("tick %d predicted a frame with NaN or Inf values", g.tick)
		}

		g.img = FrameImage(frame, conf.InChannels, conf.Height, conf.Width)
		if err := g.window.Slide(frame); err != nil {
			return err
		}
		g.tick++
		g.observe(time.Since(start))

		if err := g.display.Render(g); err != nil {
			return errors.Wrapf(err, "display failed at tick %d", g.tick)
		}
		if g.display.ShouldStop() {
			g.state = Stopped
		}
		if g.tick%64 == 0 {
			log.Printf("Tick %d, %.1f fps", g.tick, g.FPS())
		}
	}
	return g.display.Flush()
}

// State returns the loop state.
func (g *Generator) State() State { return g.state }

// Image is the displayable form of the latest predicted frame.
func (g *Generator) Image() *image.RGBA { return g.img }

// Tick is the number of frames generated so far.
func (g *Generator) Tick() int { return g.tick }

// Name is the configured run name.
func (g *Generator) Name() string { return g.name }

// Log dumps the current tick's detail log.
func (g *Generator) Log(w io.Writer) {
	fmt.Fprint(w, g.buf.String())
}

// Save the weights into filename.
func (g *Generator) Save(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0544)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	return enc.Encode(g.nn)
}

// Load weights from filename. The causal mask is re-applied as part of
// decoding, so a saved file cannot smuggle in future taps.
func (g *Generator) Load(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	g.nn = causal.New(g.nnConf)
	dec := gob.NewDecoder(f)
	if err = dec.Decode(g.nn); err != nil {
		return errors.WithStack(err)
	}
	g.useDummy = false
	if g.inf != nil {
		// the compiled inferencer still runs the old weights
		err = g.inf.Close()
		g.inf = nil
	}
	return err
}

// Close releases the compiled inference machine.
func (g *Generator) Close() error {
	var allErrs manyErr
	if g.inf != nil {
		if err := g.inf.Close(); err != nil {
			allErrs = append(allErrs, err)
		}
		g.inf = nil
	}
	if len(allErrs) > 0 {
		return allErrs
	}
	return nil
}

type manyErr []error

func (err manyErr) Error() string {
	var buf bytes.Buffer
	for _, e := range err {
		fmt.Fprintln(&buf, e.Error())
	}
	return buf.String()
}
