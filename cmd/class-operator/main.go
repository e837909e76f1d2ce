// Command class-operator runs a Kubernetes controller that syncs ClassDefinition CRs to a basis registry.
package main

import (
	"flag"
	"os"

	"github.com/klejdi94/basis/k8s"
	"github.com/klejdi94/basis/registry"
	"github.com/redis/go-redis/v9"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

func main() {
	var regDir, redisAddr, redisPrefix string
	flag.StringVar(&regDir, "registry", "", "file registry directory (default: in-memory registry)")
	flag.StringVar(&redisAddr, "redis", "", "Redis address; overrides -registry when set")
	flag.StringVar(&redisPrefix, "redis-prefix", "basis:", "Redis key prefix")
	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
	setupLog := ctrl.Log.WithName("setup")

	scheme, err := k8s.NewScheme()
	if err != nil {
		setupLog.Error(err, "unable to build scheme")
		os.Exit(1)
	}

	var reg registry.Registry
	switch {
	case redisAddr != "":
		reg = registry.NewRedisRegistry(redis.NewClient(&redis.Options{Addr: redisAddr}), redisPrefix)
	case regDir != "":
		fr, err := registry.NewFileRegistry(regDir)
		if err != nil {
			setupLog.Error(err, "unable to open file registry", "dir", regDir)
			os.Exit(1)
		}
		reg = fr
	default:
		reg = registry.NewMemoryRegistry()
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{Scheme: scheme})
	if err != nil {
		setupLog.Error(err, "unable to create manager")
		os.Exit(1)
	}
	reconciler := &k8s.ClassReconciler{
		Client:   mgr.GetClient(),
		Scheme:   mgr.GetScheme(),
		Registry: reg,
	}
	if err = reconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to set up controller")
		os.Exit(1)
	}
	setupLog.Info("starting manager")
	if err = mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "manager exited")
		os.Exit(1)
	}
}
