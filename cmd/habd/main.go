package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"
	"github.com/spf13/afero"

	fx "github.com/Evsless/hab/pkg/framework"
	"github.com/Evsless/hab/pkg/hab"
)

func init() {
	hab.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	app := hab.NewConfig().MustNewApp(afero.NewOsFs())
	if err := app.Init(); err != nil {
		glog.Errorf("boot finished with failures: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			glog.Warningf("cleanup: %v", err)
		}
	}()

	if err := fx.NewRunner().HandleSignals().Go(app).Wait(); err != nil {
		glog.Error(err)
	}
}
