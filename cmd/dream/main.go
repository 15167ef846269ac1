package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/gorgonia/hypnagogo"
	causal "github.com/gorgonia/hypnagogo/causalnet"
	"github.com/gorgonia/hypnagogo/encoding/gif"
	"github.com/gorgonia/hypnagogo/encoding/mjpeg"

	_ "net/http/pprof"
)

var (
	addr  = flag.String("addr", ":8080", "address to serve the MJPEG stream (and pprof) on")
	size  = flag.Int("size", 64, "frame size in pixels (frames are square)")
	scale = flag.Int("scale", 4, "display upscaling factor")
	seed  = flag.Int64("seed", 1337, "seed for the weights and the initial window")

	dummy = flag.Bool("dummy", false, "use the echo predictor instead of the network")
	clip  = flag.String("clip", "", "directory of seed images; random noise if empty")

	loadFile = flag.String("load", "", "load weights from this file before generating")
	saveFile = flag.String("save", "", "save weights to this file after generating")
	gifFile  = flag.String("gif", "", "also capture the run into this gif file")
	gifMax   = flag.Int("gifframes", 240, "stop after this many frames when capturing a gif")
	dotFile  = flag.String("dot", "", "dump the network architecture as graphviz and exit")
	csvFile  = flag.String("stats", "", "dump per-tick timings as csv on exit")
)

func main() {
	flag.Parse()

	nnConf := causal.DefaultConf(3, *size)
	nnConf.Seed = *seed

	if *dotFile != "" {
		nn := causal.New(nnConf)
		if err := nn.Init(); err != nil {
			log.Fatalf("%+v", err)
		}
		if err := os.WriteFile(*dotFile, []byte(nn.ToDot()), 0644); err != nil {
			log.Fatalf("%+v", err)
		}
		return
	}

	outEnc := mjpeg.NewEncoder(*scale)
	display := hypnagogo.Displays{outEnc}

	var gifEnc *gif.Encoder
	var gifOut *os.File
	if *gifFile != "" {
		var err error
		if gifOut, err = os.Create(*gifFile); err != nil {
			log.Fatalf("%+v", err)
		}
		gifEnc = gif.NewGifEncoder(*scale, *gifMax)
		gifEnc.Writer = gifOut
		display = append(display, gifEnc)
	}

	http.Handle("/stream", outEnc)
	http.Handle("/stop", outEnc.StopHandler())
	go func() {
		log.Printf("watch on http://localhost%s/stream, stop on /stop", *addr)
		if err := http.ListenAndServe(*addr, nil); err != nil {
			log.Fatalf("%+v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		outEnc.Stop()
	}()

	conf := hypnagogo.Config{
		Name:    "dream",
		NNConf:  nnConf,
		Display: display,
	}
	if *clip != "" {
		conf.Seeder = hypnagogo.ClipSeeder(*clip)
	} else {
		conf.Seeder = hypnagogo.UniformSeeder(*seed)
	}

	g := hypnagogo.New(conf)
	defer g.Close()
	if *dummy {
		g.UseDummy()
	}
	if *loadFile != "" {
		if err := g.Load(*loadFile); err != nil {
			log.Fatalf("%+v", err)
		}
	}

	if err := g.Run(); err != nil {
		g.Log(os.Stderr)
		log.Fatalf("%+v", err)
	}
	if gifOut != nil {
		gifOut.Close()
	}

	if *csvFile != "" {
		if err := g.Dump(*csvFile); err != nil {
			log.Fatalf("%+v", err)
		}
	}
	if *saveFile != "" {
		if err := g.Save(*saveFile); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}
