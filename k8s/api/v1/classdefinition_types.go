// Package v1 contains the ClassDefinition CRD types.
package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced

// ClassDefinition is the Schema for the classdefinitions API (registry sync).
type ClassDefinition struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`
	Spec              ClassDefinitionSpec   `json:"spec,omitempty"`
	Status            ClassDefinitionStatus `json:"status,omitempty"`
}

// ClassDefinitionSpec defines the desired state of ClassDefinition.
type ClassDefinitionSpec struct {
	ID          string            `json:"id,omitempty"`
	Version     string            `json:"version,omitempty"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Fields      []FieldSpec       `json:"fields,omitempty"`
	Stage       string            `json:"stage,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// FieldSpec is a field definition in the CRD. Defaults are strings and are
// converted according to Type by the controller.
type FieldSpec struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
	Message     string `json:"message,omitempty"`
}

// ClassDefinitionStatus defines the observed state of ClassDefinition.
type ClassDefinitionStatus struct {
	Synced             bool   `json:"synced"`
	ObservedGeneration int64  `json:"observedGeneration,omitempty"`
	LastSyncTime       string `json:"lastSyncTime,omitempty"`
	Message            string `json:"message,omitempty"`
}

// +kubebuilder:object:root=true

// ClassDefinitionList contains a list of ClassDefinition.
type ClassDefinitionList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []ClassDefinition `json:"items"`
}

// DeepCopyObject implements runtime.Object.
func (c *ClassDefinition) DeepCopyObject() runtime.Object {
	if c == nil {
		return nil
	}
	out := &ClassDefinition{}
	c.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (c *ClassDefinition) DeepCopyInto(out *ClassDefinition) {
	*out = *c
	c.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	c.Spec.DeepCopyInto(&out.Spec)
	out.Status = c.Status
}

// DeepCopyInto copies ClassDefinitionSpec.
func (s *ClassDefinitionSpec) DeepCopyInto(out *ClassDefinitionSpec) {
	*out = *s
	if s.Fields != nil {
		out.Fields = make([]FieldSpec, len(s.Fields))
		copy(out.Fields, s.Fields)
	}
	if s.Tags != nil {
		out.Tags = append([]string(nil), s.Tags...)
	}
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
}

// DeepCopyObject implements runtime.Object for ClassDefinitionList.
func (l *ClassDefinitionList) DeepCopyObject() runtime.Object {
	if l == nil {
		return nil
	}
	out := &ClassDefinitionList{}
	l.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the list into out.
func (l *ClassDefinitionList) DeepCopyInto(out *ClassDefinitionList) {
	*out = *l
	l.ListMeta.DeepCopyInto(&out.ListMeta)
	if l.Items != nil {
		out.Items = make([]ClassDefinition, len(l.Items))
		for i := range l.Items {
			l.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}
