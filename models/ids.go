package models

import "github.com/google/uuid"

// Namensräume für die abgeleiteten IDs. Sie dürfen sich nie ändern, sonst
// bekommen bereits importierte Zeilen bei einem Re-Import neue Identitäten.
var (
	studyNamespace      = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ddionrails/study"))
	datasetNamespace    = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ddionrails/dataset"))
	variableNamespace   = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ddionrails/variable"))
	instrumentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ddionrails/instrument"))
	questionNamespace   = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ddionrails/question"))
)

// StudyID leitet die ID einer Studie aus ihrem Namen ab.
func StudyID(name string) uuid.UUID {
	return uuid.NewSHA1(studyNamespace, []byte(name))
}

// DatasetID leitet die ID eines Datensatzes aus Studie und Name ab.
func DatasetID(studyID uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(datasetNamespace, []byte(studyID.String()+name))
}

// VariableID leitet die ID einer Variable aus Datensatz und Name ab.
func VariableID(datasetID uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(variableNamespace, []byte(datasetID.String()+name))
}

// InstrumentID leitet die ID eines Instruments aus Studie und Name ab.
func InstrumentID(studyID uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(instrumentNamespace, []byte(studyID.String()+name))
}

// QuestionID leitet die ID einer Frage aus Instrument und Name ab.
func QuestionID(instrumentID uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(questionNamespace, []byte(instrumentID.String()+name))
}
