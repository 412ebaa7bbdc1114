package trainer

import "github.com/pkg/errors"

import "github.com/neurlang/seqclassifier/net/recurrent"

// Resume loads the parameters of the model saved at path into net. The saved
// architecture must match apart from the chunk count.
func Resume(net *recurrent.Network, path string) error {
	_, saved, err := recurrent.ReadModelFile(path)
	if err != nil {
		return errors.Wrapf(err, "resuming from %s", path)
	}
	if saved == nil {
		return errors.Errorf("resuming from %s: model is not trained", path)
	}
	if err := recurrent.Synchronize(saved, net); err != nil {
		return errors.Wrapf(err, "resuming from %s", path)
	}
	return nil
}
