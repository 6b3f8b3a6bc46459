package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/temirov/sdsaudit/internal/reconcile"
)

const (
	// DefaultFileName is the conventional name of the mismatch log.
	DefaultFileName = "source-mismatch-logs.csv"

	csvHeaderDescriptionConstant = "Mismatch description"
	csvHeaderPathConstant        = "Folder/file path"

	localOnlyFoldersLabelConstant          = "Folder in local dataset but not on Pennsieve"
	localOnlyFilesLabelConstant            = "File in local dataset but not on Pennsieve"
	localOnlyZeroByteFilesLabelConstant    = "0kb file in local dataset but not on Pennsieve"
	remoteOnlyFoldersLabelConstant         = "Folder on Pennsieve but not in local dataset"
	remoteOnlyFilesLabelConstant           = "File on Pennsieve but not in local dataset"
	emptyLocalFoldersOnRemoteLabelConstant = "Empty local folder uploaded to Pennsieve"

	summaryLineTemplateConstant  = "%s\n"
	summaryCountTemplateConstant = "%s: %s%s\n"
	summaryTotalTemplateConstant = "Total mismatches: %s\n"
	emptyFolderNoteConstant      = " (these folders may not be empty on Pennsieve)"
)

// Row is one line of the mismatch log.
type Row struct {
	Category reconcile.Category
	Label    string
	Path     string
}

// CSVRecord returns the row formatted for CSV encoding.
func (row Row) CSVRecord() []string {
	return []string{row.Label, row.Path}
}

type categoryText struct {
	label        string
	countPrefix  string
	cleanMessage string
	note         string
}

var categoryTexts = map[reconcile.Category]categoryText{
	reconcile.CategoryLocalOnlyFolders: {
		label:        localOnlyFoldersLabelConstant,
		countPrefix:  "Number of folders in local dataset but not on Pennsieve",
		cleanMessage: "All folders in local dataset exist on Pennsieve",
	},
	reconcile.CategoryLocalOnlyFiles: {
		label:        localOnlyFilesLabelConstant,
		countPrefix:  "Number of files in local dataset but not on Pennsieve",
		cleanMessage: "All files in local dataset exist on Pennsieve",
	},
	reconcile.CategoryLocalOnlyZeroByteFiles: {
		label:        localOnlyZeroByteFilesLabelConstant,
		countPrefix:  "Number of 0kb files in local dataset but not on Pennsieve",
		cleanMessage: "No 0kb files in local dataset but not on Pennsieve",
	},
	reconcile.CategoryRemoteOnlyFolders: {
		label:        remoteOnlyFoldersLabelConstant,
		countPrefix:  "Number of folders on Pennsieve but not in local dataset",
		cleanMessage: "All folders on Pennsieve exist in the local dataset",
	},
	reconcile.CategoryRemoteOnlyFiles: {
		label:        remoteOnlyFilesLabelConstant,
		countPrefix:  "Number of files on Pennsieve but not in local dataset",
		cleanMessage: "All files on Pennsieve exist in the local dataset",
	},
	reconcile.CategoryEmptyLocalFoldersOnRemote: {
		label:        emptyLocalFoldersOnRemoteLabelConstant,
		countPrefix:  "Number of empty local folders on Pennsieve",
		cleanMessage: "No empty local folders on Pennsieve",
		note:         emptyFolderNoteConstant,
	},
}

// Label returns the human-readable mismatch description of a category.
func Label(category reconcile.Category) string {
	return categoryTexts[category].label
}

// Header returns the CSV header row.
func Header() []string {
	return []string{csvHeaderDescriptionConstant, csvHeaderPathConstant}
}

// Export flattens the result into rows, grouped by category in report order
// and in accumulation order within a category.
func Export(result reconcile.Result) []Row {
	return lo.FlatMap(reconcile.Categories(), func(category reconcile.Category, _ int) []Row {
		return lo.Map(result.Paths(category), func(path string, _ int) Row {
			return Row{Category: category, Label: Label(category), Path: path}
		})
	})
}

// WriteCSV writes the header followed by one record per row.
func WriteCSV(writer io.Writer, rows []Row) error {
	csvWriter := csv.NewWriter(writer)
	if writeError := csvWriter.Write(Header()); writeError != nil {
		return writeError
	}
	for _, row := range rows {
		if writeError := csvWriter.Write(row.CSVRecord()); writeError != nil {
			return writeError
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteSummary prints, per category, either the count followed by the paths
// or a message confirming there is nothing to report.
func WriteSummary(writer io.Writer, result reconcile.Result) error {
	for _, category := range reconcile.Categories() {
		text := categoryTexts[category]
		paths := result.Paths(category)
		if len(paths) == 0 {
			if _, writeError := fmt.Fprintf(writer, summaryLineTemplateConstant, text.cleanMessage); writeError != nil {
				return writeError
			}
			continue
		}

		if _, writeError := fmt.Fprintf(writer, summaryCountTemplateConstant, text.countPrefix, humanize.Comma(int64(len(paths))), text.note); writeError != nil {
			return writeError
		}
		for _, path := range paths {
			if _, writeError := fmt.Fprintf(writer, summaryLineTemplateConstant, path); writeError != nil {
				return writeError
			}
		}
	}

	_, writeError := fmt.Fprintf(writer, summaryTotalTemplateConstant, humanize.Comma(int64(result.Total())))
	return writeError
}
