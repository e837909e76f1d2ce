// Package k8s provides a Kubernetes controller that syncs ClassDefinition CRs to a registry.
package k8s

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/klejdi94/basis/core"
	v1 "github.com/klejdi94/basis/k8s/api/v1"
	"github.com/klejdi94/basis/registry"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// ClassReconciler reconciles ClassDefinition CRs by storing them in a registry.
type ClassReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Registry registry.Registry
}

// Reconcile converts the CR to a core.Class, stores it, applies stage and tags,
// then updates status.
func (r *ClassReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	cr := &v1.ClassDefinition{}
	if err := r.Get(ctx, req.NamespacedName, cr); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}
	class, err := crToClass(cr)
	if err == nil {
		err = r.sync(ctx, cr, class)
	}
	cr.Status.ObservedGeneration = cr.Generation
	if err != nil {
		logger.Error(err, "failed to sync class definition", "id", cr.Spec.ID)
		cr.Status.Synced = false
		cr.Status.Message = err.Error()
		if uerr := r.Status().Update(ctx, cr); uerr != nil {
			logger.Error(uerr, "failed to update status")
		}
		return ctrl.Result{}, err
	}
	cr.Status.Synced = true
	cr.Status.LastSyncTime = time.Now().UTC().Format(time.RFC3339)
	cr.Status.Message = ""
	if err := r.Status().Update(ctx, cr); err != nil {
		return ctrl.Result{}, err
	}
	logger.Info("synced class definition to registry", "id", class.ID, "version", class.Version)
	return ctrl.Result{}, nil
}

func (r *ClassReconciler) sync(ctx context.Context, cr *v1.ClassDefinition, class *core.Class) error {
	if err := r.Registry.Store(ctx, class); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if cr.Spec.Stage != "" {
		stage, err := registry.ParseStage(cr.Spec.Stage)
		if err != nil {
			return err
		}
		if stage != registry.StageDev {
			if err := r.Registry.Promote(ctx, class.ID, class.Version, stage); err != nil {
				return fmt.Errorf("promote: %w", err)
			}
		}
	}
	if len(cr.Spec.Tags) > 0 {
		if err := r.Registry.Tag(ctx, class.ID, class.Version, cr.Spec.Tags); err != nil {
			return fmt.Errorf("tag: %w", err)
		}
	}
	return nil
}

// crToClass builds a core.Class from the CR. The CR name is used when the
// spec has no id, and "1.0.0" when it has no version.
func crToClass(cr *v1.ClassDefinition) (*core.Class, error) {
	c := &core.Class{
		ID:          cr.Spec.ID,
		Version:     cr.Spec.Version,
		Name:        cr.Spec.Name,
		Description: cr.Spec.Description,
		CreatedAt:   cr.CreationTimestamp.Time,
		UpdatedAt:   time.Now(),
	}
	if c.ID == "" {
		c.ID = cr.Name
	}
	if c.Version == "" {
		c.Version = "1.0.0"
	}
	for _, fs := range cr.Spec.Fields {
		f := core.Field{
			Name:        fs.Name,
			Type:        core.FieldType(fs.Type),
			Required:    fs.Required,
			Description: fs.Description,
			Message:     fs.Message,
		}
		if fs.Default != "" {
			def, err := parseDefault(f.Type, fs.Default)
			if err != nil {
				return nil, fmt.Errorf("field %q default: %w", fs.Name, err)
			}
			f.Default = def
		}
		c.Fields = append(c.Fields, f)
	}
	if cr.Spec.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(cr.Spec.Metadata))
		for k, val := range cr.Spec.Metadata {
			c.Metadata[k] = val
		}
	}
	return c, nil
}

func parseDefault(t core.FieldType, s string) (interface{}, error) {
	switch t {
	case core.FieldTypeInt:
		return strconv.ParseInt(s, 10, 64)
	case core.FieldTypeFloat, core.FieldTypeNumber:
		return strconv.ParseFloat(s, 64)
	case core.FieldTypeBool:
		return strconv.ParseBool(s)
	}
	return s, nil
}

// SetupWithManager registers the reconciler with the manager.
func (r *ClassReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&v1.ClassDefinition{}).
		Complete(r)
}

// NewScheme returns a scheme with the client-go and basis types registered.
func NewScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, fmt.Errorf("add client-go scheme: %w", err)
	}
	if err := v1.AddToScheme(scheme); err != nil {
		return nil, fmt.Errorf("add basis scheme: %w", err)
	}
	return scheme, nil
}
