package k8s

import (
	"context"
	"testing"

	"github.com/klejdi94/basis/core"
	v1 "github.com/klejdi94/basis/k8s/api/v1"
	"github.com/klejdi94/basis/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
)

func sampleCR() *v1.ClassDefinition {
	return &v1.ClassDefinition{
		ObjectMeta: metav1.ObjectMeta{Name: "point", Namespace: "default"},
		Spec: v1.ClassDefinitionSpec{
			ID:    "Geometry::Point",
			Stage: "production",
			Tags:  []string{"2d"},
			Fields: []v1.FieldSpec{
				{Name: "x", Type: "number", Required: true},
				{Name: "y", Type: "number", Default: "0"},
				{Name: "label", Type: "string", Default: "origin"},
			},
			Metadata: map[string]string{"team": "geo"},
		},
	}
}

func TestCRToClass(t *testing.T) {
	c, err := crToClass(sampleCR())
	require.NoError(t, err)
	assert.Equal(t, "Geometry::Point", c.ID)
	assert.Equal(t, "1.0.0", c.Version)
	require.Len(t, c.Fields, 3)
	assert.Equal(t, core.FieldTypeNumber, c.Fields[0].Type)
	assert.Equal(t, 0.0, c.Fields[1].Default)
	assert.Equal(t, "origin", c.Fields[2].Default)
	assert.Equal(t, "geo", c.Metadata["team"])
}

func TestCRToClass_NameFallbackAndBadDefault(t *testing.T) {
	cr := sampleCR()
	cr.Spec.ID = ""
	c, err := crToClass(cr)
	require.NoError(t, err)
	assert.Equal(t, "point", c.ID)

	cr.Spec.Fields = []v1.FieldSpec{{Name: "n", Type: "int", Default: "many"}}
	_, err = crToClass(cr)
	assert.ErrorContains(t, err, `field "n" default`)
}

func TestClassDefinition_DeepCopy(t *testing.T) {
	cr := sampleCR()
	cp := cr.DeepCopyObject().(*v1.ClassDefinition)
	cp.Spec.Fields[0].Name = "changed"
	cp.Spec.Metadata["team"] = "other"
	cp.Spec.Tags[0] = "3d"
	assert.Equal(t, "x", cr.Spec.Fields[0].Name)
	assert.Equal(t, "geo", cr.Spec.Metadata["team"])
	assert.Equal(t, "2d", cr.Spec.Tags[0])
}

func TestReconcile_SyncsToRegistry(t *testing.T) {
	scheme, err := NewScheme()
	require.NoError(t, err)
	cr := sampleCR()
	cl := fake.NewClientBuilder().
		WithScheme(scheme).
		WithObjects(cr).
		WithStatusSubresource(cr).
		Build()
	reg := registry.NewMemoryRegistry()
	r := &ClassReconciler{Client: cl, Scheme: scheme, Registry: reg}

	ctx := context.Background()
	_, err = r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "point", Namespace: "default"}})
	require.NoError(t, err)

	prod, err := reg.GetProduction(ctx, "Geometry::Point")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", prod.Version)
	vers, err := reg.ListVersions(ctx, "Geometry::Point")
	require.NoError(t, err)
	require.Len(t, vers, 1)
	assert.Equal(t, []string{"2d"}, vers[0].Tags)

	got := &v1.ClassDefinition{}
	require.NoError(t, cl.Get(ctx, types.NamespacedName{Name: "point", Namespace: "default"}, got))
	assert.True(t, got.Status.Synced)
	assert.NotEmpty(t, got.Status.LastSyncTime)
}

func TestReconcile_MissingObjectIgnored(t *testing.T) {
	scheme, err := NewScheme()
	require.NoError(t, err)
	cl := fake.NewClientBuilder().WithScheme(scheme).Build()
	r := &ClassReconciler{Client: cl, Scheme: scheme, Registry: registry.NewMemoryRegistry()}
	_, err = r.Reconcile(context.Background(), ctrl.Request{NamespacedName: types.NamespacedName{Name: "gone", Namespace: "default"}})
	assert.NoError(t, err)
}
