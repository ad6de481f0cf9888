package template

import (
	"context"
	"fmt"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// ConfigMapStore serves templates stored as entries of a Kubernetes
// ConfigMap. ConfigMap keys cannot contain '/', so a template named
// "node/setup" is stored under the key "node.setup".
type ConfigMapStore struct {
	Client    kubernetes.Interface
	Namespace string
	Name      string
}

// NewConfigMapStore creates a ConfigMapStore.
func NewConfigMapStore(client kubernetes.Interface, namespace, name string) *ConfigMapStore {
	return &ConfigMapStore{Client: client, Namespace: namespace, Name: name}
}

// Get implements Store.
func (s *ConfigMapStore) Get(ctx context.Context, name string) (string, error) {
	cm, err := s.Client.CoreV1().ConfigMaps(s.Namespace).Get(ctx, s.Name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return "", fmt.Errorf("%w: configmap %s/%s does not exist", ErrNotFound, s.Namespace, s.Name)
		}
		return "", fmt.Errorf("failed to get configmap %s/%s: %w", s.Namespace, s.Name, err)
	}

	key := ConfigMapKey(name)
	if v, ok := cm.Data[key]; ok {
		return v, nil
	}
	if v, ok := cm.BinaryData[key]; ok {
		return string(v), nil
	}
	return "", fmt.Errorf("%w: %s (key %q in configmap %s/%s)", ErrNotFound, name, key, s.Namespace, s.Name)
}

// ConfigMapKey maps a template name to its ConfigMap key.
func ConfigMapKey(name string) string {
	return strings.ReplaceAll(strings.Trim(name, "/"), "/", ".")
}
