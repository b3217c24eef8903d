package types

// Logical names of the artifacts served by the prediction backend.
const (
	ModelDiabetes          = "diabetes_model"
	ModelDiabetesScaler    = "diabetes_scaler"
	ModelDiabetesImputer   = "diabetes_imputer"
	ModelPatternCNN        = "pattern_cnn"
	ModelBloodEmbedding    = "blood_embedding"
	ModelSupportEmbeddings = "support_embeddings"
)

var defaultEntries = []Entry{
	{Name: ModelDiabetes, RemoteName: "final_no_age_model.pkl", Format: FormatPickle},
	{Name: ModelDiabetesScaler, RemoteName: "final_no_age_scaler.pkl", Format: FormatPickle},
	{Name: ModelDiabetesImputer, RemoteName: "final_no_age_imputer.pkl", Format: FormatPickle},
	{Name: ModelPatternCNN, RemoteName: "improved_pattern_cnn_model_retrained.h5", Format: FormatHDF5},
	{Name: ModelBloodEmbedding, RemoteName: "blood_type_triplet_embedding.h5", Format: FormatHDF5},
	// the support set can be rebuilt from the training images, so a missing cache only disables blood group matching.
	{Name: ModelSupportEmbeddings, RemoteName: "blood_support_embeddings.npz", Format: FormatNPZ, Optional: true},
}

// DefaultManifest returns the artifacts required by the prediction backend.
func DefaultManifest() Manifest {
	return MustManifest(defaultEntries...)
}
