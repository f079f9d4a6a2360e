package main

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/pwmlink/pkg/framework"
	"github.com/robotalks/pwmlink/pkg/node"
)

func init() {
	node.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	n := node.NewConfig().MustLoad().MustNewNode()
	defer n.Close()
	framework.NewLoop().Add(n).RunOrFail(framework.NewRunner().HandleSignals().Context)
}
