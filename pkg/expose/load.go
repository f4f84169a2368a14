package expose

import (
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/abworrall/hdr-expose/pkg/imageio"
)

// LoadFilesAndDirs walks the args, recursing into directories. A
// .yaml file becomes the workspace config; anything imageio knows
// how to read becomes an input image; everything else is skipped.
func (w *Workspace)LoadFilesAndDirs(args ...string) error {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := ioutil.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %v", arg, err)
			}
			for _, content := range contents {
				if err := w.LoadFilesAndDirs(filepath.Join(arg, content.Name())); err != nil {
					return fmt.Errorf("load %s: %v", arg, err)
				}
			}

		default: // is a file, load it
			if err := w.loadFile(arg); err != nil {
				return fmt.Errorf("loadfile %s: %v", arg, err)
			}
		}
	}

	return nil
}

func (w *Workspace)loadFile(filename string) error {
	if strings.ToLower(filepath.Ext(filename)) == ".yaml" {
		cfg, err := loadConfig(filename)
		if err != nil {
			return fmt.Errorf("loading %s as config YAML failed: %v", filename, err)
		}
		w.Config = cfg
		log.Printf("Loaded base configuration from %s\n", filename)
		return nil
	}

	img, err := imageio.Load(filename)
	if err != nil {
		// Not every file in a dir is an image; quietly move on.
		if errors.Is(err, imageio.ErrUnsupportedFormat) || errors.Is(err, imageio.ErrInvalidArgument) {
			if w.Config.Verbosity > 0 {
				log.Printf("Skipping %s: %v\n", filename, err)
			}
			return nil
		}
		return err
	}

	w.Images = append(w.Images, &Image{Filename: filename, Img: img})
	return nil
}

func loadConfig(filename string) (Config, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}

	return newConfigFromYaml(contents)
}
